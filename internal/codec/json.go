package codec

import (
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"

	"tempo-go/internal/tempo"
)

// jsonRecord is the export shape of a record.
type jsonRecord struct {
	ID              int        `json:"id"`
	Project         int64      `json:"project"`
	ProjectTitle    string     `json:"project_title"`
	Description     string     `json:"description"`
	Tags            []string   `json:"tags"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	Running         bool       `json:"running"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
}

// EncodeJSONLines writes one JSON object per snapshot, newline separated.
// A running record has a null end_time and no duration.
func EncodeJSONLines(w io.Writer, snaps []tempo.Snapshot) error {
	for _, s := range snaps {
		rec := jsonRecord{
			ID:           s.ID,
			Project:      int64(s.Project),
			ProjectTitle: s.ProjectTitle,
			Description:  s.Description,
			Tags:         s.Tags,
			StartTime:    s.StartTime,
			Running:      s.IsRunning(),
		}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		if !s.IsRunning() {
			end := s.EndTime
			secs := int64(end.Sub(s.StartTime) / time.Second)
			rec.EndTime = &end
			rec.DurationSeconds = &secs
		}

		data, err := sonic.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", s.ID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing record %d: %w", s.ID, err)
		}
	}
	return nil
}
