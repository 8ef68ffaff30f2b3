package tempo

import (
	"errors"
	"testing"
	"time"
)

// jan1 returns a time on 2014-01-01 UTC.
func jan1(hour, min int) time.Time {
	return time.Date(2014, 1, 1, hour, min, 0, 0, time.UTC)
}

func jan2(hour, min int) time.Time {
	return time.Date(2014, 1, 2, hour, min, 0, 0, time.UTC)
}

func newTestTimeline() *Timeline {
	return NewTimeline(WithLocation(time.UTC))
}

func mustInsert(t *testing.T, tl *Timeline, start, end time.Time) *IntervalRecord {
	t.Helper()
	r, err := tl.Insert(Attrs{StartTime: start, EndTime: end})
	if err != nil {
		t.Fatalf("Insert(%v, %v) error = %v", start, end, err)
	}
	return r
}

// contiguousDay inserts [07:00,07:30), [07:30,17:30), [17:30, running).
func contiguousDay(t *testing.T) (*Timeline, []*IntervalRecord) {
	t.Helper()
	tl := newTestTimeline()
	return tl, []*IntervalRecord{
		mustInsert(t, tl, jan1(7, 0), jan1(7, 30)),
		mustInsert(t, tl, jan1(7, 30), jan1(17, 30)),
		mustInsert(t, tl, jan1(17, 30), time.Time{}),
	}
}

func assertInvariants(t *testing.T, tl *Timeline) {
	t.Helper()
	records := tl.Records()
	running := 0
	for i, a := range records {
		if a.IsRunning() {
			running++
		}
		for _, b := range records[i+1:] {
			if overlaps(a.start, a.end, b.start, b.end) {
				t.Errorf("records %d %s and %d %s overlap",
					a.id, formatSpan(a.start, a.end), b.id, formatSpan(b.start, b.end))
			}
		}
	}
	if running > 1 {
		t.Errorf("%d running records, want at most 1", running)
	}
}

func TestTimeline_ContiguousDayWithRunningTail(t *testing.T) {
	tl, records := contiguousDay(t)

	current, err := tl.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if current != records[2] {
		t.Errorf("Current() = %v, want third record", current)
	}
	for i, r := range records {
		if r.ID() != i+1 {
			t.Errorf("records[%d].ID() = %d, want %d", i, r.ID(), i+1)
		}
	}
	assertInvariants(t, tl)
}

func TestTimeline_StartInsideClosedRecordOverlaps(t *testing.T) {
	tl, _ := contiguousDay(t)

	_, err := tl.Insert(Attrs{StartTime: jan1(12, 0)})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("Insert([12:00, running)) error = %v, want ErrOverlap", err)
	}
	if tl.Len() != 3 {
		t.Errorf("Len() = %d after rejected insert, want 3", tl.Len())
	}
	if c, _ := tl.Current(); c == nil || !c.StartTime().Equal(jan1(17, 30)) {
		t.Errorf("rejected insert changed the running record: %v", c)
	}
}

func TestTimeline_InsertEndingAtExistingStart(t *testing.T) {
	tl := newTestTimeline()

	r1 := mustInsert(t, tl, jan1(10, 0), jan1(12, 0))
	r2 := mustInsert(t, tl, jan1(8, 0), jan1(10, 0))

	if !r2.EndTime().Equal(r1.StartTime()) {
		t.Errorf("r2.EndTime() = %v, want %v", r2.EndTime(), r1.StartTime())
	}
	assertInvariants(t, tl)
}

func TestTimeline_ClearAllRestartsIDs(t *testing.T) {
	tl, _ := contiguousDay(t)

	tl.ClearAll()
	if tl.Len() != 0 {
		t.Fatalf("Len() after ClearAll = %d", tl.Len())
	}

	r := mustInsert(t, tl, jan1(9, 0), jan1(10, 0))
	if r.ID() != 1 {
		t.Errorf("ID() after ClearAll = %d, want 1", r.ID())
	}
}

func TestTimeline_AutoClose(t *testing.T) {
	tl := newTestTimeline()

	first := mustInsert(t, tl, jan1(9, 0), time.Time{})
	second := mustInsert(t, tl, jan1(11, 15), time.Time{})

	if !first.EndTime().Equal(jan1(11, 15)) {
		t.Errorf("first.EndTime() = %v, want %v", first.EndTime(), jan1(11, 15))
	}
	if !second.IsRunning() {
		t.Error("second record should be running")
	}

	// a closed insert after the running record also closes it
	third := mustInsert(t, tl, jan1(13, 0), jan1(14, 0))
	if !second.EndTime().Equal(jan1(13, 0)) {
		t.Errorf("second.EndTime() = %v, want %v", second.EndTime(), jan1(13, 0))
	}
	if third.IsRunning() {
		t.Error("third record should be closed")
	}
	if c, _ := tl.Current(); c != nil {
		t.Errorf("Current() = %v, want nil", c)
	}
	assertInvariants(t, tl)
}

func TestTimeline_AutoCloseAcrossDays(t *testing.T) {
	tl := newTestTimeline()

	evening := mustInsert(t, tl, jan1(22, 0), time.Time{})
	morning := mustInsert(t, tl, jan2(8, 0), time.Time{})

	if want := jan1(23, 59); !evening.EndTime().Equal(want) {
		t.Errorf("evening.EndTime() = %v, want %v", evening.EndTime(), want)
	}
	if !morning.IsRunning() {
		t.Error("morning record should be running")
	}
	assertInvariants(t, tl)
}

func TestTimeline_SameStartRejected(t *testing.T) {
	tl := newTestTimeline()
	mustInsert(t, tl, jan1(9, 0), time.Time{})

	if _, err := tl.Insert(Attrs{StartTime: jan1(9, 0), EndTime: jan1(9, 0)}); !errors.Is(err, ErrOverlap) {
		t.Errorf("Insert() with shared start error = %v, want ErrOverlap", err)
	}
}

func TestTimeline_Backfill(t *testing.T) {
	t.Run("closes at the next record's start", func(t *testing.T) {
		tl := newTestTimeline()
		later := mustInsert(t, tl, jan1(13, 0), time.Time{})

		early := mustInsert(t, tl, jan1(9, 0), time.Time{})
		if !early.EndTime().Equal(jan1(13, 0)) {
			t.Errorf("early.EndTime() = %v, want %v", early.EndTime(), jan1(13, 0))
		}
		if !later.IsRunning() {
			t.Error("later record should still be running")
		}
		assertInvariants(t, tl)
	})

	t.Run("closes at end of day when next record is on a later day", func(t *testing.T) {
		tl := newTestTimeline()
		mustInsert(t, tl, jan2(9, 0), jan2(10, 0))

		r := mustInsert(t, tl, jan1(20, 0), time.Time{})
		if want := jan1(23, 59); !r.EndTime().Equal(want) {
			t.Errorf("EndTime() = %v, want %v", r.EndTime(), want)
		}
	})
}

func TestTimeline_InsertErrors(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{name: "day boundary", start: jan1(10, 0), end: jan2(10, 0), wantErr: ErrBoundary},
		{name: "end before start", start: jan1(10, 0), end: jan1(9, 0), wantErr: ErrOrder},
		{name: "missing start", start: time.Time{}, end: jan1(9, 0), wantErr: ErrMissingStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := newTestTimeline()
			_, err := tl.Insert(Attrs{StartTime: tt.start, EndTime: tt.end})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Insert() error = %v, want %v", err, tt.wantErr)
			}
			if tl.Len() != 0 {
				t.Errorf("Len() = %d after failed insert, want 0", tl.Len())
			}
		})
	}
}

func TestTimeline_ZeroLengthRecord(t *testing.T) {
	tl := newTestTimeline()
	r := mustInsert(t, tl, jan1(9, 0), jan1(9, 0))

	if d, _ := r.Duration(); d != 0 {
		t.Errorf("Duration() = %d, want 0", d)
	}
	// a record touching the empty span's point is not an overlap
	mustInsert(t, tl, jan1(8, 0), jan1(9, 0))
}

func TestTimeline_ResolvesProjects(t *testing.T) {
	projects := &stubResolver{current: 3, titles: map[ProjectID]string{3: "writing", 4: "reading"}}
	tl := NewTimeline(WithLocation(time.UTC), WithProjectResolver(projects))

	r, err := tl.Insert(Attrs{StartTime: jan1(9, 0), EndTime: jan1(10, 0)})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if r.Project() != 3 || r.ProjectTitle() != "writing" {
		t.Errorf("Insert() project = %d %q, want 3 writing", r.Project(), r.ProjectTitle())
	}

	r, err = tl.Insert(Attrs{Project: 4, StartTime: jan1(10, 0), EndTime: jan1(11, 0)})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if r.ProjectTitle() != "reading" {
		t.Errorf("ProjectTitle() = %q, want reading", r.ProjectTitle())
	}

	if _, err := tl.Insert(Attrs{Project: 9, StartTime: jan1(11, 0), EndTime: jan1(12, 0)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Insert() with unknown project error = %v, want ErrNotFound", err)
	}

	lookups := projects.lookups
	r, err = tl.Restore(Attrs{ID: 7, Project: 1, ProjectTitle: "archived", StartTime: jan1(12, 0), EndTime: jan1(13, 0)})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if projects.lookups != lookups {
		t.Error("Restore() consulted the project resolver")
	}
	if r.ID() != 7 || r.ProjectTitle() != "archived" {
		t.Errorf("Restore() = %d %q, want 7 archived", r.ID(), r.ProjectTitle())
	}
}

func TestTimeline_RestoreIDs(t *testing.T) {
	tl := newTestTimeline()

	a, _ := tl.Restore(Attrs{ID: 3, StartTime: jan1(8, 0), EndTime: jan1(9, 0)})
	b, _ := tl.Restore(Attrs{ID: 3, StartTime: jan1(9, 0), EndTime: jan1(10, 0)})
	c := mustInsert(t, tl, jan1(10, 0), jan1(11, 0))

	if a.ID() != 3 {
		t.Errorf("first restored ID() = %d, want 3", a.ID())
	}
	if b.ID() != 4 {
		t.Errorf("colliding restored ID() = %d, want 4", b.ID())
	}
	if c.ID() != 5 {
		t.Errorf("inserted ID() = %d, want 5", c.ID())
	}
}

func TestTimeline_ReserveIDs(t *testing.T) {
	tl := newTestTimeline()

	tl.ReserveIDs(7)
	r := mustInsert(t, tl, jan1(8, 0), jan1(9, 0))
	if r.ID() != 8 {
		t.Errorf("ID() after ReserveIDs(7) = %d, want 8", r.ID())
	}

	// reserving below the sequence does not move it back
	tl.ReserveIDs(2)
	r = mustInsert(t, tl, jan1(9, 0), jan1(10, 0))
	if r.ID() != 9 {
		t.Errorf("ID() after ReserveIDs(2) = %d, want 9", r.ID())
	}
}

func TestTimeline_Close(t *testing.T) {
	tl := newTestTimeline()

	if err := tl.Close(jan1(9, 0)); err != nil {
		t.Errorf("Close() with nothing running error = %v", err)
	}

	r := mustInsert(t, tl, jan1(9, 0), time.Time{})
	if err := tl.Close(jan1(8, 0)); !errors.Is(err, ErrOrder) {
		t.Errorf("Close() before start error = %v, want ErrOrder", err)
	}
	if err := tl.Close(jan2(1, 0)); !errors.Is(err, ErrBoundary) {
		t.Errorf("Close() next day error = %v, want ErrBoundary", err)
	}
	if !r.IsRunning() {
		t.Fatal("failed Close() mutated the record")
	}

	if err := tl.Close(jan1(12, 0)); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !r.EndTime().Equal(jan1(12, 0)) {
		t.Errorf("EndTime() = %v, want %v", r.EndTime(), jan1(12, 0))
	}
}

func TestTimeline_SetEndTime(t *testing.T) {
	tl := newTestTimeline()
	first := mustInsert(t, tl, jan1(9, 0), jan1(10, 0))
	mustInsert(t, tl, jan1(11, 0), jan1(12, 0))

	if err := tl.SetEndTime(first.ID(), jan1(10, 30)); err != nil {
		t.Errorf("SetEndTime() within gap error = %v", err)
	}
	if err := tl.SetEndTime(first.ID(), jan1(11, 30)); !errors.Is(err, ErrOverlap) {
		t.Errorf("SetEndTime() into next record error = %v, want ErrOverlap", err)
	}
	if !first.EndTime().Equal(jan1(10, 30)) {
		t.Errorf("EndTime() = %v after rejected change, want 10:30", first.EndTime())
	}
	if err := tl.SetEndTime(99, jan1(10, 0)); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetEndTime() unknown id error = %v, want ErrNotFound", err)
	}
	if err := tl.SetEndTime(first.ID(), time.Time{}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetEndTime() zero end error = %v, want ErrInvalidState", err)
	}
}

func TestTimeline_ValidityPredicates(t *testing.T) {
	tl, records := contiguousDay(t)

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"start inside closed record", tl.ValidStartTime(jan1(12, 0)), false},
		{"start after running record", tl.ValidStartTime(jan1(18, 0)), true},
		{"start before everything", tl.ValidStartTime(jan1(6, 0)), true},
		{"start next day", tl.ValidStartTime(jan2(9, 0)), true},
		{"end running at 18:00", tl.ValidEndTime(jan1(18, 0)), true},
		{"end running before its start", tl.ValidEndTime(jan1(17, 0)), false},
		{"end running next day", tl.ValidEndTime(jan2(0, 30)), false},
		{"move first start earlier", tl.ValidStartTimeFor(records[0].ID(), jan1(6, 30)), true},
		{"move second start into first", tl.ValidStartTimeFor(records[1].ID(), jan1(7, 15)), false},
		{"end first later into second", tl.ValidEndTimeFor(records[0].ID(), jan1(8, 0)), false},
		{"end first earlier", tl.ValidEndTimeFor(records[0].ID(), jan1(7, 10)), true},
		{"unknown id", tl.ValidEndTimeFor(42, jan1(7, 10)), false},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	// predicates never mutate
	if tl.Len() != 3 || !records[2].IsRunning() {
		t.Error("validity predicates mutated the timeline")
	}

	empty := newTestTimeline()
	if empty.ValidEndTime(jan1(9, 0)) {
		t.Error("ValidEndTime() = true with nothing running")
	}
}

func TestTimeline_CurrentInvariant(t *testing.T) {
	tl := newTestTimeline()
	tl.records = []*IntervalRecord{
		{id: 1, start: jan1(9, 0)},
		{id: 2, start: jan1(10, 0)},
	}

	if _, err := tl.Current(); !errors.Is(err, ErrInvariant) {
		t.Errorf("Current() with two running records error = %v, want ErrInvariant", err)
	}
}

func TestTimeline_GroupByDay(t *testing.T) {
	tl := newTestTimeline()
	mustInsert(t, tl, jan2(9, 0), jan2(10, 0))
	mustInsert(t, tl, jan1(9, 0), jan1(10, 0))
	mustInsert(t, tl, jan2(11, 0), time.Time{})

	buckets := tl.GroupByDay()
	if len(buckets) != 2 {
		t.Fatalf("GroupByDay() = %d buckets, want 2", len(buckets))
	}
	if buckets[0].Day.String() != "20140101" || len(buckets[0].Records) != 1 {
		t.Errorf("buckets[0] = %s with %d records", buckets[0].Day, len(buckets[0].Records))
	}
	if buckets[1].Day.String() != "20140102" || len(buckets[1].Records) != 2 {
		t.Errorf("buckets[1] = %s with %d records", buckets[1].Day, len(buckets[1].Records))
	}
	if buckets[1].Records[0].ID() != 1 || buckets[1].Records[1].ID() != 3 {
		t.Error("GroupByDay() did not keep insertion order within a bucket")
	}
}

func TestTimeline_GroupByDayUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	tl := NewTimeline(WithLocation(tokyo))

	// 20:00 UTC on Jan 1 is 05:00 on Jan 2 in Tokyo
	if _, err := tl.Insert(Attrs{StartTime: jan1(20, 0), EndTime: jan1(21, 0)}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got := tl.GroupByDay()[0].Day.String(); got != "20140102" {
		t.Errorf("bucket day = %s, want 20140102", got)
	}
}

type stubResolver struct {
	current ProjectID
	titles  map[ProjectID]string
	lookups int
}

func (s *stubResolver) CurrentProject() (ProjectID, string, error) {
	s.lookups++
	return s.current, s.titles[s.current], nil
}

func (s *stubResolver) ProjectTitle(id ProjectID) (string, error) {
	s.lookups++
	title, ok := s.titles[id]
	if !ok {
		return "", ErrNotFound
	}
	return title, nil
}
