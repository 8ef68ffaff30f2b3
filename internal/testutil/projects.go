package testutil

import (
	"fmt"

	"tempo-go/internal/tempo"
)

// StubProjects is an in-memory tempo.ProjectResolver.
type StubProjects struct {
	Titles  map[tempo.ProjectID]string
	Current tempo.ProjectID

	// Lookups counts calls to either resolver method.
	Lookups int
}

var _ tempo.ProjectResolver = (*StubProjects)(nil)

// NewStubProjects creates a resolver knowing the given titles, with ids
// assigned from 1 in order. No project is current.
func NewStubProjects(titles ...string) *StubProjects {
	p := &StubProjects{Titles: make(map[tempo.ProjectID]string)}
	for i, title := range titles {
		p.Titles[tempo.ProjectID(i+1)] = title
	}
	return p
}

func (p *StubProjects) CurrentProject() (tempo.ProjectID, string, error) {
	p.Lookups++
	if p.Current == 0 {
		return 0, "", nil
	}
	return p.Current, p.Titles[p.Current], nil
}

func (p *StubProjects) ProjectTitle(id tempo.ProjectID) (string, error) {
	p.Lookups++
	title, ok := p.Titles[id]
	if !ok {
		return "", fmt.Errorf("project %d: %w", id, tempo.ErrNotFound)
	}
	return title, nil
}
