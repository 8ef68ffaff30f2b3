package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"tempo-go/internal/codec"
	"tempo-go/internal/config"
	"tempo-go/internal/database"
	"tempo-go/internal/encryption"
	"tempo-go/internal/store"
	"tempo-go/internal/tempo"
)

// TempoApp is the application layer between the CLI and tempo.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI values, and releases resources on Close.
type TempoApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	store   *store.Store
	service *tempo.Service
	op      *Operation
	clock   tempo.Clock
	logger  *slog.Logger
	logFile *os.File
}

// Options carries the process-level inputs of NewTempoApp. Zero values use
// the real clock, os.Stderr and no passphrase source.
type Options struct {
	Passphrase encryption.PassphraseFunc
	Clock      tempo.Clock
	Stderr     io.Writer
}

// NewTempoApp creates a fully wired TempoApp from the given config.
// operation names the CLI command being run (e.g. "Start", "ClearDay").
// The caller must call Close when done.
func NewTempoApp(cfg *config.Config, operation string, opts Options) (*TempoApp, error) {
	if opts.Clock == nil {
		opts.Clock = tempo.RealClock{}
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	cipher, err := encryption.NewCipherFromConfig(cfg.Encryption, opts.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	st, err := store.NewStoreFromConfig(cfg.Store, cipher)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, opts.Clock)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	op := NewOperation(operation, opts.Clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ShortID(), opts.Stderr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger.Debug("operation started", "operation", operation)

	svc := tempo.NewService(st, db, &slogAdapter{l: logger}, opts.Clock, loc)

	return &TempoApp{
		cfg:     cfg,
		db:      db,
		store:   st,
		service: svc,
		op:      op,
		clock:   opts.Clock,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Location returns the configured calendar location.
func (a *TempoApp) Location() *time.Location {
	return a.service.Location()
}

// Now returns the current time of the app's clock in its location.
func (a *TempoApp) Now() time.Time {
	return a.clock.Now().In(a.Location())
}

// StoreDir returns the day-file directory, or "" for a memory store.
func (a *TempoApp) StoreDir() string {
	return a.store.Dir()
}

// Start begins a new record. project is a project title; empty means the
// current project.
func (a *TempoApp) Start(description, project string, tags []string, start, end time.Time) (*tempo.IntervalRecord, error) {
	req := tempo.StartRequest{
		Description: description,
		Tags:        tags,
		Start:       start,
		End:         end,
	}
	if project != "" {
		p, err := a.db.FindProjectByTitle(project)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("project %q: %w", project, tempo.ErrNotFound)
		}
		req.Project = p.ID
	}
	return a.service.Start(req)
}

// End closes the running record.
func (a *TempoApp) End(at time.Time) (*tempo.IntervalRecord, error) {
	return a.service.End(at)
}

// Current returns the running record, or nil.
func (a *TempoApp) Current() (*tempo.IntervalRecord, error) {
	return a.service.Current()
}

// Day returns the records of the day named by raw ("YYYYMMDD"); an empty
// raw means today.
func (a *TempoApp) Day(raw string) (tempo.Day, []*tempo.IntervalRecord, error) {
	day, err := a.ParseDay(raw)
	if err != nil {
		return tempo.Day{}, nil, err
	}
	records, err := a.service.Day(day)
	return day, records, err
}

// Range returns the records of every stored day between from and to inclusive.
func (a *TempoApp) Range(from, to string) ([]tempo.DayBucket, error) {
	f, err := a.ParseDay(from)
	if err != nil {
		return nil, err
	}
	t, err := a.ParseDay(to)
	if err != nil {
		return nil, err
	}
	return a.service.Range(f, t)
}

// Tag adds tags to a record of the given day.
func (a *TempoApp) Tag(day string, id int, tags []string) (*tempo.IntervalRecord, error) {
	d, err := a.ParseDay(day)
	if err != nil {
		return nil, err
	}
	return a.service.Tag(d, id, tags)
}

// Untag removes tags from a record of the given day.
func (a *TempoApp) Untag(day string, id int, tags []string) (*tempo.IntervalRecord, error) {
	d, err := a.ParseDay(day)
	if err != nil {
		return nil, err
	}
	return a.service.Untag(d, id, tags)
}

// ClearDay erases a stored day.
func (a *TempoApp) ClearDay(day string) (int, error) {
	d, err := a.ParseDay(day)
	if err != nil {
		return 0, err
	}
	if d.IsZero() {
		return 0, fmt.Errorf("a day is required")
	}
	return a.service.ClearDay(d)
}

// Export writes the records of every stored day between from and to as
// JSON lines.
func (a *TempoApp) Export(w io.Writer, from, to string) (int, error) {
	buckets, err := a.Range(from, to)
	if err != nil {
		return 0, err
	}
	var snaps []tempo.Snapshot
	for _, b := range buckets {
		for _, r := range b.Records {
			snaps = append(snaps, r.Snapshot())
		}
	}
	if err := codec.EncodeJSONLines(w, snaps); err != nil {
		return 0, fmt.Errorf("exporting records: %w", err)
	}
	return len(snaps), nil
}

// AddProject registers a project and optionally makes it current.
func (a *TempoApp) AddProject(title string, use bool) (*database.Project, error) {
	p, err := a.db.CreateProject(title)
	if err != nil {
		return nil, err
	}
	if use {
		if err := a.db.SetCurrent(p.ID); err != nil {
			return nil, err
		}
		p.Current = true
	}
	return p, nil
}

// UseProject makes the named project current. An empty title clears it.
func (a *TempoApp) UseProject(title string) error {
	if title == "" {
		return a.db.SetCurrent(0)
	}
	p, err := a.db.FindProjectByTitle(title)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("project %q: %w", title, tempo.ErrNotFound)
	}
	return a.db.SetCurrent(p.ID)
}

// ListProjects returns every registered project.
func (a *TempoApp) ListProjects() ([]*database.Project, error) {
	return a.db.ListProjects()
}

// ParseDay parses "YYYYMMDD". The empty string is today in the configured
// location.
func (a *TempoApp) ParseDay(raw string) (tempo.Day, error) {
	if raw == "" {
		return tempo.DayOf(a.clock.Now(), a.Location()), nil
	}
	return tempo.ParseDay(raw)
}

// Finish records the outcome of the operation in the log.
func (a *TempoApp) Finish(err error) {
	a.op.Finish(err)
}

// Close closes the database and the log file.
func (a *TempoApp) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	a.logger.Debug("operation finished", "operation", a.op.Name, "status", a.op.Status,
		"elapsed", a.clock.Now().Sub(a.op.StartedAt))
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
