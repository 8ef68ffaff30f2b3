// Package codec converts interval records to and from their durable form.
//
// A day file is a stream of YAML documents, one per record:
//
//	project_title: sheep herding
//	description: day 1 pet the sheep
//	start_time: 2014-01-01 07:00:00.000000000 -05:00
//	end_time: 2014-01-01 07:30:00.000000000 -05:00
//	id: 1
//	project: 1
//	tags: []
//
// A running record has end_time "running".
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"tempo-go/internal/tempo"
)

const (
	// TimeLayout is the timestamp format of start_time and end_time.
	TimeLayout = "2006-01-02 15:04:05.000000000 -07:00"

	// RunningToken is the end_time of a running record.
	RunningToken = "running"
)

// document is the field order written to disk.
type document struct {
	ProjectTitle string   `yaml:"project_title"`
	Description  string   `yaml:"description"`
	StartTime    string   `yaml:"start_time"`
	EndTime      string   `yaml:"end_time"`
	ID           int      `yaml:"id"`
	Project      int64    `yaml:"project"`
	Tags         []string `yaml:"tags"`
}

// rawDocument is what is read back; pointers tell absent required fields
// apart from zero values.
type rawDocument struct {
	ProjectTitle string   `yaml:"project_title"`
	Description  string   `yaml:"description"`
	StartTime    *string  `yaml:"start_time"`
	EndTime      *string  `yaml:"end_time"`
	ID           *int     `yaml:"id"`
	Project      int64    `yaml:"project"`
	Tags         []string `yaml:"tags"`
}

// DecodeError reports a malformed document. Index is the document's position
// in its stream, starting at 0. It matches tempo.ErrDecode under errors.Is.
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: document %d: %v", tempo.ErrDecode, e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == tempo.ErrDecode }

func toDocument(s tempo.Snapshot) document {
	end := RunningToken
	if !s.IsRunning() {
		end = s.EndTime.Format(TimeLayout)
	}
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return document{
		ProjectTitle: s.ProjectTitle,
		Description:  s.Description,
		StartTime:    s.StartTime.Format(TimeLayout),
		EndTime:      end,
		ID:           s.ID,
		Project:      int64(s.Project),
		Tags:         tags,
	}
}

// Encode returns the YAML document for one record.
func Encode(s tempo.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeAll(&buf, []tempo.Snapshot{s}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeAll writes one document per snapshot, in order.
func EncodeAll(w io.Writer, snaps []tempo.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, s := range snaps {
		if err := enc.Encode(toDocument(s)); err != nil {
			return fmt.Errorf("encoding record %d: %w", s.ID, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing document stream: %w", err)
	}
	return nil
}

// Decode parses a single YAML document into insertion attributes.
func Decode(data []byte) (tempo.Attrs, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return tempo.Attrs{}, &DecodeError{Err: err}
	}
	a, err := fromRaw(raw)
	if err != nil {
		return tempo.Attrs{}, &DecodeError{Err: err}
	}
	return a, nil
}

// DecodeAll parses every document of a stream, in order. An empty stream
// yields no attributes.
func DecodeAll(r io.Reader) ([]tempo.Attrs, error) {
	dec := yaml.NewDecoder(r)
	var out []tempo.Attrs
	for i := 0; ; i++ {
		var raw rawDocument
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, &DecodeError{Index: i, Err: err}
		}
		a, err := fromRaw(raw)
		if err != nil {
			return nil, &DecodeError{Index: i, Err: err}
		}
		out = append(out, a)
	}
}

func fromRaw(raw rawDocument) (tempo.Attrs, error) {
	switch {
	case raw.ID == nil:
		return tempo.Attrs{}, errors.New("missing id")
	case raw.StartTime == nil:
		return tempo.Attrs{}, errors.New("missing start_time")
	case raw.EndTime == nil:
		return tempo.Attrs{}, errors.New("missing end_time")
	}

	start, err := parseTime(*raw.StartTime)
	if err != nil {
		return tempo.Attrs{}, fmt.Errorf("start_time: %w", err)
	}

	var end time.Time
	if *raw.EndTime != RunningToken {
		end, err = parseTime(*raw.EndTime)
		if err != nil {
			return tempo.Attrs{}, fmt.Errorf("end_time: %w", err)
		}
	}

	tags := raw.Tags
	if tags == nil {
		tags = []string{}
	}
	return tempo.Attrs{
		ID:           *raw.ID,
		Project:      tempo.ProjectID(raw.Project),
		ProjectTitle: raw.ProjectTitle,
		Description:  raw.Description,
		Tags:         tags,
		StartTime:    start,
		EndTime:      end,
	}, nil
}

// parseTime accepts TimeLayout and, for hand-edited files, RFC 3339.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	if t, rfcErr := time.Parse(time.RFC3339Nano, s); rfcErr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("malformed timestamp %q", s)
}
