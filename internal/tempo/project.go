package tempo

// ProjectID is an opaque reference to a project. The zero value means unset.
type ProjectID int64

// ProjectResolver supplies project defaults and titles at record construction.
// Implementations live outside this package (see internal/database).
type ProjectResolver interface {
	// CurrentProject returns the project new records default to.
	// It returns 0 and an empty title when no project is current.
	CurrentProject() (ProjectID, string, error)

	// ProjectTitle returns the display title of a project.
	ProjectTitle(id ProjectID) (string, error)
}
