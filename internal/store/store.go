// Package store persists timelines as one file of YAML documents per day.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"tempo-go/internal/codec"
	"tempo-go/internal/tempo"
)

// backend holds the encoded bytes of each day. Implementations report an
// absent day with fs.ErrNotExist.
type backend interface {
	read(day tempo.Day) ([]byte, error)
	write(day tempo.Day, data []byte) error
	remove(day tempo.Day) error
	days() ([]tempo.Day, error)
	describe(day tempo.Day) string
}

// Store implements tempo.DayStore on top of a backend, optionally sealing
// every day with a cipher.
type Store struct {
	backend backend
	cipher  tempo.Cipher
}

var _ tempo.DayStore = (*Store)(nil)

// Save writes each day bucket of tl, replacing what was stored for that day.
// Days that have no records in tl are not touched.
func (s *Store) Save(tl *tempo.Timeline) error {
	for _, b := range tl.GroupByDay() {
		if err := s.replace(b.Day, b.Records); err != nil {
			return err
		}
	}
	return nil
}

// SaveDays rewrites exactly the listed days. A listed day with no records in
// tl is removed from the store, but a day that still holds records is only
// erased when erase is set.
func (s *Store) SaveDays(tl *tempo.Timeline, days []tempo.Day, erase bool) error {
	buckets := make(map[tempo.Day][]*tempo.IntervalRecord)
	for _, b := range tl.GroupByDay() {
		buckets[b.Day] = b.Records
	}

	for _, day := range days {
		records := buckets[day]
		if len(records) == 0 && !erase {
			held, err := s.holdsRecords(day)
			if err != nil {
				return err
			}
			if held {
				return fmt.Errorf("%s: %w", s.backend.describe(day), tempo.ErrEraseUnconfirmed)
			}
		}
		if err := s.replace(day, records); err != nil {
			return err
		}
	}
	return nil
}

// replace swaps the stored day for records. An empty records removes the day.
func (s *Store) replace(day tempo.Day, records []*tempo.IntervalRecord) error {
	if len(records) == 0 {
		if err := s.backend.remove(day); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", s.backend.describe(day), err)
		}
		return nil
	}

	snaps := make([]tempo.Snapshot, len(records))
	for i, r := range records {
		snaps[i] = r.Snapshot()
	}

	var plain bytes.Buffer
	if err := codec.EncodeAll(&plain, snaps); err != nil {
		return fmt.Errorf("encoding %s: %w", day, err)
	}

	data := plain.Bytes()
	if s.cipher != nil {
		var sealed bytes.Buffer
		if err := s.cipher.Encrypt(&plain, &sealed); err != nil {
			return fmt.Errorf("encrypting %s: %w", day, err)
		}
		data = sealed.Bytes()
	}

	if err := s.backend.write(day, data); err != nil {
		return fmt.Errorf("writing %s: %w", s.backend.describe(day), err)
	}
	return nil
}

// Load decodes every record stored for day, in stored order.
func (s *Store) Load(day tempo.Day) ([]tempo.Attrs, error) {
	data, err := s.backend.read(day)
	if errors.Is(err, fs.ErrNotExist) {
		return []tempo.Attrs{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.backend.describe(day), err)
	}

	if s.cipher != nil {
		var plain bytes.Buffer
		if err := s.cipher.Decrypt(bytes.NewReader(data), &plain); err != nil {
			return nil, fmt.Errorf("decrypting %s: %w", s.backend.describe(day), err)
		}
		data = plain.Bytes()
	}

	attrs, err := codec.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.backend.describe(day), err)
	}
	if attrs == nil {
		attrs = []tempo.Attrs{}
	}
	return attrs, nil
}

// Days lists the stored days, oldest first.
func (s *Store) Days() ([]tempo.Day, error) {
	days, err := s.backend.days()
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	return days, nil
}

// Dir returns the directory holding day files, or "" for stores that are
// not on disk.
func (s *Store) Dir() string {
	if fsb, ok := s.backend.(*fsBackend); ok {
		return fsb.dir
	}
	return ""
}

// holdsRecords reports whether something non-empty is stored for day.
func (s *Store) holdsRecords(day tempo.Day) (bool, error) {
	data, err := s.backend.read(day)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", s.backend.describe(day), err)
	}
	return len(bytes.TrimSpace(data)) > 0, nil
}
