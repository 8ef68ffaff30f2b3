package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"tempo-go/internal/app"
	"tempo-go/internal/config"
	"tempo-go/internal/store"
	"tempo-go/internal/tempo"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a TempoApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Start", "ClearDay").
func newApp(operation string) (*app.TempoApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewTempoApp(cfg, operation, app.Options{Passphrase: readPassphrase})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp runs fn against a fresh app and records its outcome.
func withApp(operation string, fn func(a *app.TempoApp) error) error {
	a, err := newApp(operation)
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(a)
	a.Finish(err)
	return err
}

var rootCmd = &cobra.Command{
	Use:          "tempo",
	Short:        "Personal time tracker",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration, database and keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		timezone, _ := cmd.Flags().GetString("timezone")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		cfg.Timezone = timezone
		if _, err := cfg.Location(); err != nil {
			return err
		}

		var passphrase string
		if encrypt {
			cfg.Encryption.Type = "age"
			if passphrase, err = readNewPassphrase(); err != nil {
				return err
			}
		}

		if err := app.Setup(defaults.ConfigPath, cfg, passphrase); err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		timezone := cfg.Timezone
		if timezone == "" {
			timezone = "(local)"
		}
		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Timezone:   %s\n", timezone)
		fmt.Printf("Store:      %s %s\n", cfg.Store.Type, cfg.Store.Root)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the project database schema up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

// project command
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Register a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		use, _ := cmd.Flags().GetBool("use")
		return withApp("AddProject", func(a *app.TempoApp) error {
			p, err := a.AddProject(args[0], use)
			if err != nil {
				return err
			}
			fmt.Printf("Added project #%d %s\n", p.ID, p.Title)
			return nil
		})
	},
}

var projectUseCmd = &cobra.Command{
	Use:   "use [TITLE]",
	Short: "Set the project new records default to (no title clears it)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := ""
		if len(args) > 0 {
			title = args[0]
		}
		return withApp("UseProject", func(a *app.TempoApp) error {
			if err := a.UseProject(title); err != nil {
				return err
			}
			if title == "" {
				fmt.Println("No current project.")
			} else {
				fmt.Printf("Current project: %s\n", title)
			}
			return nil
		})
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("ListProjects", func(a *app.TempoApp) error {
			projects, err := a.ListProjects()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects.")
				return nil
			}
			for _, p := range projects {
				marker := " "
				if p.Current {
					marker = "*"
				}
				fmt.Printf("%s %3d  %s\n", marker, p.ID, p.Title)
			}
			return nil
		})
	},
}

// start command
var startCmd = &cobra.Command{
	Use:   "start [DESCRIPTION]",
	Short: "Start tracking (closes any running record)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		atFlag, _ := cmd.Flags().GetString("at")
		endFlag, _ := cmd.Flags().GetString("end")
		project, _ := cmd.Flags().GetString("project")
		tags, _ := cmd.Flags().GetStringSlice("tag")

		description := ""
		if len(args) > 0 {
			description = args[0]
		}

		return withApp("Start", func(a *app.TempoApp) error {
			start, err := parseWhen(atFlag, a.Now(), a.Location())
			if err != nil {
				return err
			}
			end, err := parseWhen(endFlag, a.Now(), a.Location())
			if err != nil {
				return err
			}

			r, err := a.Start(description, project, tags, start, end)
			if err != nil {
				return err
			}
			fmt.Println(formatRecord(r, a.Location()))
			return nil
		})
	},
}

// end command
var endCmd = &cobra.Command{
	Use:   "end",
	Short: "Stop the running record",
	RunE: func(cmd *cobra.Command, args []string) error {
		atFlag, _ := cmd.Flags().GetString("at")

		return withApp("End", func(a *app.TempoApp) error {
			end, err := parseWhen(atFlag, a.Now(), a.Location())
			if err != nil {
				return err
			}
			r, err := a.End(end)
			if err != nil {
				return err
			}
			fmt.Println(formatRecord(r, a.Location()))
			return nil
		})
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running record",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")

		return withApp("Status", func(a *app.TempoApp) error {
			if err := printStatus(a); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return store.Watch(ctx, a.StoreDir(), func(tempo.Day) {
				if err := printStatus(a); err != nil {
					fmt.Fprintf(os.Stderr, "status: %v\n", err)
				}
			})
		})
	},
}

func printStatus(a *app.TempoApp) error {
	r, err := a.Current()
	if err != nil {
		return err
	}
	if r == nil {
		fmt.Println("Not tracking.")
		return nil
	}
	fmt.Println(formatRecord(r, a.Location()))
	return nil
}

// day command
var dayCmd = &cobra.Command{
	Use:   "day [YYYYMMDD]",
	Short: "List the records of a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := ""
		if len(args) > 0 {
			raw = args[0]
		}

		return withApp("Day", func(a *app.TempoApp) error {
			day, records, err := a.Day(raw)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Printf("No records for %s.\n", day)
				return nil
			}
			printTable(os.Stdout, records, a.Location())
			return nil
		})
	},
}

// tag and untag commands
var tagCmd = &cobra.Command{
	Use:   "tag ID TAG...",
	Short: "Add tags to a record",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return retag(cmd, args, "Tag", (*app.TempoApp).Tag)
	},
}

var untagCmd = &cobra.Command{
	Use:   "untag ID TAG...",
	Short: "Remove tags from a record",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return retag(cmd, args, "Untag", (*app.TempoApp).Untag)
	},
}

func retag(cmd *cobra.Command, args []string, operation string,
	apply func(*app.TempoApp, string, int, []string) (*tempo.IntervalRecord, error)) error {
	day, _ := cmd.Flags().GetString("day")
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid record id %q", args[0])
	}

	return withApp(operation, func(a *app.TempoApp) error {
		r, err := apply(a, day, id, args[1:])
		if err != nil {
			return err
		}
		fmt.Println(formatRecord(r, a.Location()))
		return nil
	})
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export [FROM] [TO]",
	Short: "Write records as JSON lines (default today)",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to := "", ""
		if len(args) > 0 {
			from, to = args[0], args[0]
		}
		if len(args) > 1 {
			to = args[1]
		}

		return withApp("Export", func(a *app.TempoApp) error {
			n, err := a.Export(os.Stdout, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Exported %d record(s)\n", n)
			return nil
		})
	},
}

// clear command
var clearCmd = &cobra.Command{
	Use:   "clear YYYYMMDD",
	Short: "Erase every record of a day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to erase %s without --yes", args[0])
		}

		return withApp("ClearDay", func(a *app.TempoApp) error {
			n, err := a.ClearDay(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Erased %d record(s) from %s\n", n, args[0])
			return nil
		})
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("encrypt", false, "Seal day files with age (prompts for a passphrase)")
	configInitCmd.Flags().String("timezone", "", "IANA timezone for day boundaries (default: local)")
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configMigrateCmd)

	// project subcommands
	projectCmd.AddCommand(projectAddCmd)
	projectAddCmd.Flags().Bool("use", false, "Make the new project current")
	projectCmd.AddCommand(projectUseCmd)
	projectCmd.AddCommand(projectListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(projectCmd)

	rootCmd.AddCommand(startCmd)
	startCmd.Flags().String("at", "", "Start time (HH:MM or \"YYYY-MM-DD HH:MM\", default now)")
	startCmd.Flags().String("end", "", "End time; records a closed interval")
	startCmd.Flags().StringP("project", "p", "", "Project title (default: current project)")
	startCmd.Flags().StringSliceP("tag", "t", nil, "Tag to attach (repeatable)")

	rootCmd.AddCommand(endCmd)
	endCmd.Flags().String("at", "", "End time (HH:MM or \"YYYY-MM-DD HH:MM\", default now)")

	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolP("watch", "w", false, "Keep running and reprint when day files change")

	rootCmd.AddCommand(dayCmd)

	rootCmd.AddCommand(tagCmd)
	tagCmd.Flags().String("day", "", "Day of the record, YYYYMMDD (default today)")
	rootCmd.AddCommand(untagCmd)
	untagCmd.Flags().String("day", "", "Day of the record, YYYYMMDD (default today)")

	rootCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().Bool("yes", false, "Confirm erasing the day")
}
