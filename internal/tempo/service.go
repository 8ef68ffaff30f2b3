package tempo

import (
	"fmt"
	"slices"
	"time"
)

// Service coordinates the timeline, the day store and project lookups for
// the high-level operations the CLI needs. Each operation loads the days it
// touches into a fresh Timeline, mutates it, and saves those days back.
type Service struct {
	store    DayStore
	projects ProjectResolver
	logger   Logger
	clock    Clock
	loc      *time.Location
}

// NewService creates a Service. A nil loc means time.Local.
func NewService(store DayStore, projects ProjectResolver, logger Logger, clock Clock, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:    store,
		projects: projects,
		logger:   logger,
		clock:    clock,
		loc:      loc,
	}
}

// Location returns the location that bounds calendar days.
func (s *Service) Location() *time.Location {
	return s.loc
}

// StartRequest describes a record to start. A zero Start means now; a zero
// End leaves the record running.
type StartRequest struct {
	Description string
	Project     ProjectID
	Tags        []string
	Start       time.Time
	End         time.Time
}

// Start inserts a new record. Any running record is closed by the insert.
// New ids continue after the highest id stored on any day, and only the days
// of the new record and of a closed running record are rewritten.
func (s *Service) Start(req StartRequest) (*IntervalRecord, error) {
	start := req.Start
	if start.IsZero() {
		start = s.clock.Now()
	}

	days := []Day{DayOf(start, s.loc)}
	latest, ok, err := s.latestDay()
	if err != nil {
		return nil, err
	}
	if ok {
		days = append(days, latest)
	}

	tl, _, err := s.load(days...)
	if err != nil {
		return nil, err
	}
	maxID, err := s.maxStoredID()
	if err != nil {
		return nil, err
	}
	tl.ReserveIDs(maxID)

	running, err := tl.Current()
	if err != nil {
		return nil, err
	}

	r, err := tl.Insert(Attrs{
		Project:     req.Project,
		Description: req.Description,
		Tags:        req.Tags,
		StartTime:   start,
		EndTime:     req.End,
	})
	if err != nil {
		return nil, fmt.Errorf("starting record: %w", err)
	}

	// only days whose records changed are written back
	touched := []Day{DayOf(r.StartTime(), s.loc)}
	if running != nil && !running.IsRunning() {
		touched = append(touched, DayOf(running.StartTime(), s.loc))
	}
	if err := s.store.SaveDays(tl, slices.Compact(touched), false); err != nil {
		return nil, fmt.Errorf("saving records: %w", err)
	}

	s.logger.Info("record started",
		"id", r.ID(),
		"day", DayOf(r.StartTime(), s.loc).String(),
		"project", int64(r.Project()),
		"running", r.IsRunning())
	return r, nil
}

// End closes the running record at the given time (now when zero) and
// returns it.
func (s *Service) End(at time.Time) (*IntervalRecord, error) {
	if at.IsZero() {
		at = s.clock.Now()
	}

	tl, loaded, err := s.loadLatest()
	if err != nil {
		return nil, err
	}

	c, err := tl.Current()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("no running record: %w", ErrNotFound)
	}

	if err := tl.Close(at); err != nil {
		return nil, err
	}

	if err := s.store.SaveDays(tl, loaded, false); err != nil {
		return nil, fmt.Errorf("saving records: %w", err)
	}

	s.logger.Info("record ended", "id", c.ID(), "end", at.Format(time.DateTime))
	return c, nil
}

// Current returns the running record, or nil.
func (s *Service) Current() (*IntervalRecord, error) {
	tl, _, err := s.loadLatest()
	if err != nil {
		return nil, err
	}
	return tl.Current()
}

// Day returns the records stored for one day in stored order.
func (s *Service) Day(day Day) ([]*IntervalRecord, error) {
	tl, _, err := s.load(day)
	if err != nil {
		return nil, err
	}
	return tl.Records(), nil
}

// Range returns the stored records of every day from from to to inclusive,
// bucketed by day. Days without records are omitted.
func (s *Service) Range(from, to Day) ([]DayBucket, error) {
	stored, err := s.store.Days()
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	var days []Day
	for _, d := range stored {
		if !d.Before(from) && !to.Before(d) {
			days = append(days, d)
		}
	}
	tl, _, err := s.load(days...)
	if err != nil {
		return nil, err
	}
	return tl.GroupByDay(), nil
}

// Tag adds tags to the record with the given id on day.
func (s *Service) Tag(day Day, id int, tags []string) (*IntervalRecord, error) {
	return s.retag(day, id, func(r *IntervalRecord) { r.Tag(tags...) })
}

// Untag removes tags from the record with the given id on day.
func (s *Service) Untag(day Day, id int, tags []string) (*IntervalRecord, error) {
	return s.retag(day, id, func(r *IntervalRecord) { r.Untag(tags...) })
}

func (s *Service) retag(day Day, id int, apply func(*IntervalRecord)) (*IntervalRecord, error) {
	tl, loaded, err := s.load(day)
	if err != nil {
		return nil, err
	}
	r := tl.Find(id)
	if r == nil {
		return nil, fmt.Errorf("record %d on %s: %w", id, day, ErrNotFound)
	}
	apply(r)
	if err := s.store.SaveDays(tl, loaded, false); err != nil {
		return nil, fmt.Errorf("saving records: %w", err)
	}
	s.logger.Info("record tags updated", "id", id, "day", day.String(), "tags", r.Tags())
	return r, nil
}

// ClearDay erases every record stored for day and returns how many there were.
func (s *Service) ClearDay(day Day) (int, error) {
	tl, _, err := s.load(day)
	if err != nil {
		return 0, err
	}
	n := tl.Len()
	tl.ClearAll()
	if err := s.store.SaveDays(tl, []Day{day}, true); err != nil {
		return 0, fmt.Errorf("erasing %s: %w", day, err)
	}
	s.logger.Warn("day cleared", "day", day.String(), "records", n)
	return n, nil
}

// latestDay returns the most recent day with stored records.
func (s *Service) latestDay() (Day, bool, error) {
	days, err := s.store.Days()
	if err != nil {
		return Day{}, false, fmt.Errorf("listing days: %w", err)
	}
	if len(days) == 0 {
		return Day{}, false, nil
	}
	return days[len(days)-1], true, nil
}

// maxStoredID returns the highest record id stored on any day, or 0.
func (s *Service) maxStoredID() (int, error) {
	days, err := s.store.Days()
	if err != nil {
		return 0, fmt.Errorf("listing days: %w", err)
	}
	maxID := 0
	for _, day := range days {
		attrs, err := s.store.Load(day)
		if err != nil {
			return 0, fmt.Errorf("loading %s: %w", day, err)
		}
		for _, a := range attrs {
			maxID = max(maxID, a.ID)
		}
	}
	return maxID, nil
}

// loadLatest loads the most recent stored day, which is where a running
// record lives.
func (s *Service) loadLatest() (*Timeline, []Day, error) {
	latest, ok, err := s.latestDay()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return s.load()
	}
	return s.load(latest)
}

// load builds a timeline from the given days, oldest first, and returns the
// distinct days it covers. Stored records keep their ids and project titles.
func (s *Service) load(days ...Day) (*Timeline, []Day, error) {
	days = slices.Clone(days)
	slices.SortFunc(days, Day.Compare)
	days = slices.Compact(days)

	tl := NewTimeline(WithLocation(s.loc), WithProjectResolver(s.projects))
	for _, day := range days {
		attrs, err := s.store.Load(day)
		if err != nil {
			return nil, nil, fmt.Errorf("loading %s: %w", day, err)
		}
		for _, a := range attrs {
			if _, err := tl.Restore(a); err != nil {
				s.logger.Error("stored record rejected", "day", day.String(), "id", a.ID, "error", err)
				return nil, nil, fmt.Errorf("restoring record %d of %s: %w", a.ID, day, err)
			}
		}
	}
	return tl, days, nil
}
