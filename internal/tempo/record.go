package tempo

import (
	"fmt"
	"slices"
	"time"
)

// IntervalRecord is one tracked span of time. The zero EndTime marks a
// running record. Start and end are only changed through a Timeline, which
// owns the invariants across records.
type IntervalRecord struct {
	id           int
	project      ProjectID
	projectTitle string
	description  string
	tags         []string
	start        time.Time
	end          time.Time
}

// Snapshot is an immutable copy of every field of a record.
type Snapshot struct {
	ID           int
	Project      ProjectID
	ProjectTitle string
	Description  string
	Tags         []string
	StartTime    time.Time
	EndTime      time.Time // zero while running
}

// Attrs are the inputs for Timeline.Insert. A zero ID asks the timeline for
// the next sequential id; a zero Project falls back to the current project;
// a zero EndTime leaves the record running.
type Attrs struct {
	ID           int
	Project      ProjectID
	ProjectTitle string
	Description  string
	Tags         []string
	StartTime    time.Time
	EndTime      time.Time
}

func (r *IntervalRecord) ID() int              { return r.id }
func (r *IntervalRecord) Project() ProjectID   { return r.project }
func (r *IntervalRecord) ProjectTitle() string { return r.projectTitle }
func (r *IntervalRecord) Description() string  { return r.description }
func (r *IntervalRecord) StartTime() time.Time { return r.start }
func (r *IntervalRecord) EndTime() time.Time   { return r.end }

// SetDescription replaces the free-form description.
func (r *IntervalRecord) SetDescription(s string) { r.description = s }

// Tags returns a copy of the record's tags in sorted order.
func (r *IntervalRecord) Tags() []string {
	return slices.Clone(r.tags)
}

// IsRunning reports whether the record has no end time yet.
func (r *IntervalRecord) IsRunning() bool {
	return r.end.IsZero()
}

// Duration returns the closed record's length in whole seconds.
// Callers that need the elapsed time of a running record compute it
// against their own notion of now.
func (r *IntervalRecord) Duration() (int64, error) {
	if r.IsRunning() {
		return 0, fmt.Errorf("duration of record %d: %w: record is running", r.id, ErrInvalidState)
	}
	return int64(r.end.Sub(r.start) / time.Second), nil
}

// Tag adds names to the record's tags.
func (r *IntervalRecord) Tag(names ...string) {
	r.tags = normalizeTags(append(r.tags, names...))
}

// Untag removes names from the record's tags.
func (r *IntervalRecord) Untag(names ...string) {
	r.tags = slices.DeleteFunc(r.tags, func(t string) bool {
		return slices.Contains(names, t)
	})
}

// Snapshot returns a copy of the record with no references back into it.
func (r *IntervalRecord) Snapshot() Snapshot {
	return Snapshot{
		ID:           r.id,
		Project:      r.project,
		ProjectTitle: r.projectTitle,
		Description:  r.description,
		Tags:         r.Tags(),
		StartTime:    r.start,
		EndTime:      r.end,
	}
}

// IsRunning reports whether the snapshot was taken of a running record.
func (s Snapshot) IsRunning() bool {
	return s.EndTime.IsZero()
}

// Equal reports whether two snapshots describe the same record. Times are
// compared as instants, so a change of zone representation is not a difference.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.ID == o.ID &&
		s.Project == o.Project &&
		s.ProjectTitle == o.ProjectTitle &&
		s.Description == o.Description &&
		slices.Equal(normalizeTags(slices.Clone(s.Tags)), normalizeTags(slices.Clone(o.Tags))) &&
		s.StartTime.Equal(o.StartTime) &&
		s.EndTime.Equal(o.EndTime)
}

// Attrs converts the snapshot back into insertion attributes.
func (s Snapshot) Attrs() Attrs {
	return Attrs{
		ID:           s.ID,
		Project:      s.Project,
		ProjectTitle: s.ProjectTitle,
		Description:  s.Description,
		Tags:         slices.Clone(s.Tags),
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
	}
}

// Snapshot returns the attributes as they would be recorded, with tags
// normalized.
func (a Attrs) Snapshot() Snapshot {
	return Snapshot{
		ID:           a.ID,
		Project:      a.Project,
		ProjectTitle: a.ProjectTitle,
		Description:  a.Description,
		Tags:         normalizeTags(slices.Clone(a.Tags)),
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
	}
}

// normalizeTags sorts and deduplicates tags in place, dropping empty names.
// The result is never nil.
func normalizeTags(tags []string) []string {
	tags = slices.DeleteFunc(tags, func(t string) bool { return t == "" })
	slices.Sort(tags)
	tags = slices.Compact(tags)
	if tags == nil {
		return []string{}
	}
	return tags
}
