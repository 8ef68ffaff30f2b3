package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"tempo-go/internal/tempo"
)

const descriptionWidth = 32

// parseWhen parses a CLI time in loc. Accepted forms are "HH:MM" (on the
// day of now), "YYYY-MM-DD HH:MM" and RFC 3339. The empty string is the zero
// time.
func parseWhen(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	if t, err := time.ParseInLocation("15:04", raw, loc); err == nil {
		now = now.In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want HH:MM or \"YYYY-MM-DD HH:MM\")", raw)
}

// formatRecord renders one record on a single line.
func formatRecord(r *tempo.IntervalRecord, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d  %s  %s", r.ID(), formatSpan(r, loc), formatDuration(r))
	if r.ProjectTitle() != "" {
		fmt.Fprintf(&b, "  [%s]", r.ProjectTitle())
	}
	if r.Description() != "" {
		fmt.Fprintf(&b, "  %s", r.Description())
	}
	if tags := r.Tags(); len(tags) > 0 {
		fmt.Fprintf(&b, "  #%s", strings.Join(tags, " #"))
	}
	return b.String()
}

// printTable writes records as aligned columns. Descriptions are padded and
// truncated by display width so wide characters keep the columns straight.
func printTable(w io.Writer, records []*tempo.IntervalRecord, loc *time.Location) {
	var total time.Duration
	for _, r := range records {
		desc := runewidth.Truncate(r.Description(), descriptionWidth, "…")
		desc = runewidth.FillRight(desc, descriptionWidth)
		fmt.Fprintf(w, "%3d  %s  %8s  %s  %s\n",
			r.ID(), formatSpan(r, loc), formatDuration(r), desc, strings.Join(r.Tags(), ","))
		if d, err := r.Duration(); err == nil {
			total += time.Duration(d) * time.Second
		}
	}
	fmt.Fprintf(w, "%s  %8s\n", strings.Repeat(" ", 3+2+13), formatHours(total))
}

func formatSpan(r *tempo.IntervalRecord, loc *time.Location) string {
	start := r.StartTime().In(loc).Format("15:04")
	if r.IsRunning() {
		return start + " - now  "
	}
	return start + " - " + r.EndTime().In(loc).Format("15:04")
}

func formatDuration(r *tempo.IntervalRecord) string {
	d, err := r.Duration()
	if err != nil {
		return "running"
	}
	return formatHours(time.Duration(d) * time.Second)
}

// formatHours renders d as H:MM.
func formatHours(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
