package tempo

import (
	"fmt"
	"slices"
	"time"
)

// Timeline holds the records of one model instance in insertion order and
// enforces the invariants between them:
//
//   - at most one record is running;
//   - no two records overlap, with records treated as half-open [start, end)
//     intervals and a running record extending forever;
//   - a closed record never ends before it starts;
//   - a closed record starts and ends on the same calendar day.
//
// Every query is a linear scan; a timeline holds a handful of days at most.
// A Timeline is not safe for concurrent use.
type Timeline struct {
	records  []*IntervalRecord
	nextID   int
	loc      *time.Location
	projects ProjectResolver
}

// TimelineOption configures a Timeline.
type TimelineOption func(*Timeline)

// WithLocation sets the location whose calendar days bound records.
// The default is time.Local.
func WithLocation(loc *time.Location) TimelineOption {
	return func(tl *Timeline) {
		if loc != nil {
			tl.loc = loc
		}
	}
}

// WithProjectResolver sets the source of project defaults and titles.
func WithProjectResolver(r ProjectResolver) TimelineOption {
	return func(tl *Timeline) { tl.projects = r }
}

// NewTimeline creates an empty timeline.
func NewTimeline(opts ...TimelineOption) *Timeline {
	tl := &Timeline{nextID: 1, loc: time.Local}
	for _, opt := range opts {
		opt(tl)
	}
	return tl
}

// Location returns the location calendar days are computed in.
func (tl *Timeline) Location() *time.Location {
	return tl.loc
}

// insertPlan is a fully validated insertion that has not been applied yet.
type insertPlan struct {
	start, end time.Time
	closing    *IntervalRecord // running record to close, if any
	closeAt    time.Time
}

// Insert validates attrs against the timeline and appends a new record.
//
// A record inserted without an end time is normally left running, and the
// previously running record is closed at the new record's start. If the new
// record starts before an existing record, it is instead closed where the
// next record begins. Nothing is mutated unless every check passes.
func (tl *Timeline) Insert(attrs Attrs) (*IntervalRecord, error) {
	project, title, err := tl.resolveProject(attrs.Project, attrs.ProjectTitle)
	if err != nil {
		return nil, err
	}
	attrs.Project, attrs.ProjectTitle = project, title
	return tl.insert(attrs)
}

// Restore inserts a previously stored record. It runs the same checks as
// Insert but takes the project and title as recorded, without consulting the
// project resolver. The stored id is kept unless another record holds it.
func (tl *Timeline) Restore(attrs Attrs) (*IntervalRecord, error) {
	return tl.insert(attrs)
}

func (tl *Timeline) insert(attrs Attrs) (*IntervalRecord, error) {
	plan, err := tl.plan(attrs.StartTime, attrs.EndTime)
	if err != nil {
		return nil, err
	}

	id := attrs.ID
	if id <= 0 || tl.Find(id) != nil {
		id = tl.nextID
	}
	if id >= tl.nextID {
		tl.nextID = id + 1
	}

	if plan.closing != nil {
		plan.closing.end = plan.closeAt
	}

	r := &IntervalRecord{
		id:           id,
		project:      attrs.Project,
		projectTitle: attrs.ProjectTitle,
		description:  attrs.Description,
		tags:         normalizeTags(slices.Clone(attrs.Tags)),
		start:        plan.start,
		end:          plan.end,
	}
	tl.records = append(tl.records, r)
	return r, nil
}

// resolveProject fills in the current project when none was given and the
// project's title when only the id is known.
func (tl *Timeline) resolveProject(project ProjectID, title string) (ProjectID, string, error) {
	if tl.projects == nil {
		return project, title, nil
	}
	if project == 0 {
		id, currentTitle, err := tl.projects.CurrentProject()
		if err != nil {
			return 0, "", fmt.Errorf("resolving current project: %w", err)
		}
		project = id
		if title == "" {
			title = currentTitle
		}
	}
	if project != 0 && title == "" {
		t, err := tl.projects.ProjectTitle(project)
		if err != nil {
			return 0, "", fmt.Errorf("resolving title of project %d: %w", project, err)
		}
		title = t
	}
	return project, title, nil
}

// plan runs the insertion checks in order: ordering, day boundary, overlap,
// then the auto-close of the running record.
func (tl *Timeline) plan(start, end time.Time) (*insertPlan, error) {
	if start.IsZero() {
		return nil, ErrMissingStart
	}
	if end.IsZero() {
		end = tl.backfillEnd(start)
	}
	if err := tl.checkSpan(start, end); err != nil {
		return nil, err
	}

	p := &insertPlan{start: start, end: end}
	p.closing, p.closeAt = tl.autoClose(start)

	for _, r := range tl.records {
		rEnd := r.end
		if r == p.closing {
			rEnd = p.closeAt
		}
		if overlaps(start, end, r.start, rEnd) {
			return nil, tl.overlapError(start, end, r)
		}
	}

	if p.closing != nil {
		if err := tl.checkSpan(p.closing.start, p.closeAt); err != nil {
			return nil, fmt.Errorf("closing running record %d: %w: %v", p.closing.id, ErrOverlap, err)
		}
		if other := tl.overlapping(p.closing.start, p.closeAt, p.closing); other != nil {
			return nil, fmt.Errorf("closing running record %d: %w", p.closing.id, tl.overlapError(p.closing.start, p.closeAt, other))
		}
	}
	return p, nil
}

// autoClose returns the running record that a record starting at start
// closes, and the time it is closed at. Only the latest-started record
// qualifies, and only when start is strictly after it. A close that would
// land on a later day is pulled back to the end of the running record's day.
func (tl *Timeline) autoClose(start time.Time) (*IntervalRecord, time.Time) {
	c := tl.running()
	if c == nil || !start.After(c.start) {
		return nil, time.Time{}
	}
	for _, r := range tl.records {
		if r.start.After(c.start) {
			return nil, time.Time{}
		}
	}
	if DayOf(start, tl.loc) == DayOf(c.start, tl.loc) {
		return c, start
	}
	return c, closingTime(c.start, tl.loc)
}

// backfillEnd is the end given to an open record inserted before existing
// records: the start of the next record, or the end of its own day when the
// next record is on a later day. It returns the zero time (running) when
// nothing starts after start.
func (tl *Timeline) backfillEnd(start time.Time) time.Time {
	var next time.Time
	for _, r := range tl.records {
		if r.start.After(start) && (next.IsZero() || r.start.Before(next)) {
			next = r.start
		}
	}
	if next.IsZero() {
		return time.Time{}
	}
	if DayOf(next, tl.loc) != DayOf(start, tl.loc) {
		return closingTime(start, tl.loc)
	}
	return next
}

// checkSpan enforces ordering and the same-day rule for a closed span.
func (tl *Timeline) checkSpan(start, end time.Time) error {
	if end.IsZero() {
		return nil
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end %s, start %s", ErrOrder, end.Format(time.DateTime), start.Format(time.DateTime))
	}
	if DayOf(start, tl.loc) != DayOf(end, tl.loc) {
		return fmt.Errorf("%w: start %s, end %s", ErrBoundary, DayOf(start, tl.loc), DayOf(end, tl.loc))
	}
	return nil
}

// overlapping returns the first record other than skip that intersects
// [start, end), or nil.
func (tl *Timeline) overlapping(start, end time.Time, skip *IntervalRecord) *IntervalRecord {
	for _, r := range tl.records {
		if r == skip {
			continue
		}
		if overlaps(start, end, r.start, r.end) {
			return r
		}
	}
	return nil
}

func (tl *Timeline) overlapError(start, end time.Time, r *IntervalRecord) error {
	return fmt.Errorf("%w: %s overlaps record %d %s",
		ErrOverlap, formatSpan(start, end), r.id, formatSpan(r.start, r.end))
}

// validateChange checks a replacement span for an existing record against
// every other record.
func (tl *Timeline) validateChange(r *IntervalRecord, start, end time.Time) error {
	if err := tl.checkSpan(start, end); err != nil {
		return err
	}
	if end.IsZero() {
		if c := tl.running(); c != nil && c != r {
			return fmt.Errorf("%w: record %d is already running", ErrInvalidState, c.id)
		}
	}
	if other := tl.overlapping(start, end, r); other != nil {
		return tl.overlapError(start, end, other)
	}
	return nil
}

// Close ends the running record at end. It is a no-op when nothing is running.
func (tl *Timeline) Close(end time.Time) error {
	c, err := tl.Current()
	if err != nil || c == nil {
		return err
	}
	return tl.SetEndTime(c.id, end)
}

// SetEndTime ends, or re-ends, the record with the given id.
func (tl *Timeline) SetEndTime(id int, end time.Time) error {
	r := tl.Find(id)
	if r == nil {
		return fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	if end.IsZero() {
		return fmt.Errorf("record %d: %w: end time required", id, ErrInvalidState)
	}
	if err := tl.validateChange(r, r.start, end); err != nil {
		return fmt.Errorf("ending record %d: %w", id, err)
	}
	r.end = end
	return nil
}

// Current returns the running record, or nil when every record is closed.
func (tl *Timeline) Current() (*IntervalRecord, error) {
	var current *IntervalRecord
	for _, r := range tl.records {
		if !r.IsRunning() {
			continue
		}
		if current != nil {
			return nil, fmt.Errorf("%w: records %d and %d are both running", ErrInvariant, current.id, r.id)
		}
		current = r
	}
	return current, nil
}

// running returns the first running record without checking for others.
func (tl *Timeline) running() *IntervalRecord {
	for _, r := range tl.records {
		if r.IsRunning() {
			return r
		}
	}
	return nil
}

// ValidStartTime reports whether a new open record could start at t.
func (tl *Timeline) ValidStartTime(t time.Time) bool {
	_, err := tl.plan(t, time.Time{})
	return err == nil
}

// ValidEndTime reports whether the running record could be closed at t.
// It is false when nothing is running.
func (tl *Timeline) ValidEndTime(t time.Time) bool {
	c := tl.running()
	if c == nil || t.IsZero() {
		return false
	}
	return tl.validateChange(c, c.start, t) == nil
}

// ValidStartTimeFor reports whether the record with the given id could be
// moved to start at t, keeping its end.
func (tl *Timeline) ValidStartTimeFor(id int, t time.Time) bool {
	r := tl.Find(id)
	if r == nil || t.IsZero() {
		return false
	}
	return tl.validateChange(r, t, r.end) == nil
}

// ValidEndTimeFor reports whether the record with the given id could end at t.
func (tl *Timeline) ValidEndTimeFor(id int, t time.Time) bool {
	r := tl.Find(id)
	if r == nil || t.IsZero() {
		return false
	}
	return tl.validateChange(r, r.start, t) == nil
}

// Find returns the record with the given id, or nil.
func (tl *Timeline) Find(id int) *IntervalRecord {
	for _, r := range tl.records {
		if r.id == id {
			return r
		}
	}
	return nil
}

// Records returns every record in insertion order.
func (tl *Timeline) Records() []*IntervalRecord {
	return slices.Clone(tl.records)
}

// Len returns the number of records.
func (tl *Timeline) Len() int {
	return len(tl.records)
}

// ReserveIDs makes sure ids up to and including upTo are never handed out
// to new records.
func (tl *Timeline) ReserveIDs(upTo int) {
	if upTo >= tl.nextID {
		tl.nextID = upTo + 1
	}
}

// ClearAll removes every record and restarts ids at 1.
func (tl *Timeline) ClearAll() {
	tl.records = nil
	tl.nextID = 1
}

// DayBucket is the set of records that start on one calendar day.
type DayBucket struct {
	Day     Day
	Records []*IntervalRecord
}

// GroupByDay buckets records by the day of their start time. Buckets are in
// chronological order; records keep insertion order within a bucket.
func (tl *Timeline) GroupByDay() []DayBucket {
	var buckets []DayBucket
	index := make(map[Day]int)
	for _, r := range tl.records {
		d := DayOf(r.start, tl.loc)
		i, ok := index[d]
		if !ok {
			i = len(buckets)
			index[d] = i
			buckets = append(buckets, DayBucket{Day: d})
		}
		buckets[i].Records = append(buckets[i].Records, r)
	}
	slices.SortFunc(buckets, func(a, b DayBucket) int { return a.Day.Compare(b.Day) })
	return buckets
}

// overlaps reports whether [s1, e1) and [s2, e2) intersect. A zero end is
// unbounded. Spans sharing a start always overlap, even when one is empty.
func overlaps(s1, e1, s2, e2 time.Time) bool {
	if s1.Equal(s2) {
		return true
	}
	return before(s1, e2) && before(s2, e1)
}

// before reports a < b, treating a zero b as +infinity.
func before(a, b time.Time) bool {
	return b.IsZero() || a.Before(b)
}

func formatSpan(start, end time.Time) string {
	if end.IsZero() {
		return fmt.Sprintf("[%s, running)", start.Format(time.DateTime))
	}
	return fmt.Sprintf("[%s, %s)", start.Format(time.DateTime), end.Format(time.DateTime))
}
