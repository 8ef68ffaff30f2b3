package tempo

// DayStore persists a timeline as one unit per calendar day.
type DayStore interface {
	// Save writes every day bucket of tl, replacing any existing unit for
	// that day. Days without records in tl are left untouched.
	Save(tl *Timeline) error

	// SaveDays rewrites exactly the given days from tl: each unit is replaced
	// by tl's records for the day, or removed when tl has none.
	// Removing a unit that holds records fails with ErrEraseUnconfirmed
	// unless erase is true.
	SaveDays(tl *Timeline, days []Day, erase bool) error

	// Load returns the attributes of every record stored for day, in stored
	// order. A day with nothing stored yields an empty result.
	Load(day Day) ([]Attrs, error)

	// Days lists the days that have stored records, oldest first.
	Days() ([]Day, error)
}
