package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tempo-go/internal/database/migrations"
	"tempo-go/internal/tempo"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Project is a row of the project registry.
type Project struct {
	ID        tempo.ProjectID
	Title     string
	Current   bool
	CreatedAt time.Time
}

// SQLiteDatabase is the project registry. It implements tempo.ProjectResolver.
type SQLiteDatabase struct {
	db    *sql.DB
	clock tempo.Clock
	path  string
}

var _ tempo.ProjectResolver = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase opens the registry at path, which may be ":memory:".
// A nil clock uses the real clock.
func NewSQLiteDatabase(path string, clock tempo.Clock) (*SQLiteDatabase, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteDatabaseFromDB(db, clock), nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection. The caller is
// responsible for configuring it with OpenConnection.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock tempo.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = tempo.RealClock{}
	}
	return &SQLiteDatabase{db: db, clock: clock}
}

// OpenConnection opens and configures a SQLite connection with appropriate PRAGMAs.
// The pool is capped at one connection so ":memory:" databases stay a single database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// Migrate applies pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations returns an error unless the schema is current.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Close closes the underlying connection.
func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

// Project operations

// CreateProject registers a new project. Titles are unique.
func (s *SQLiteDatabase) CreateProject(title string) (*Project, error) {
	if title == "" {
		return nil, fmt.Errorf("project title must not be empty")
	}
	ctx := context.Background()

	existing, err := s.FindProjectByTitle(title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("project %q already exists", title)
	}

	now := s.clock.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (title, current, created_at) VALUES (?, 0, ?)",
		title, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading project id: %w", err)
	}
	return &Project{ID: tempo.ProjectID(id), Title: title, CreatedAt: now.Truncate(time.Second)}, nil
}

// FindProject returns the project with the given id, or nil if none exists.
func (s *SQLiteDatabase) FindProject(id tempo.ProjectID) (*Project, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT id, title, current, created_at FROM projects WHERE id = ?", int64(id))
	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("finding project %d: %w", id, err)
	}
	return p, nil
}

// FindProjectByTitle returns the project with the given title, or nil.
func (s *SQLiteDatabase) FindProjectByTitle(title string) (*Project, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT id, title, current, created_at FROM projects WHERE title = ?", title)
	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("finding project %q: %w", title, err)
	}
	return p, nil
}

// ListProjects returns every project ordered by id.
func (s *SQLiteDatabase) ListProjects() ([]*Project, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT id, title, current, created_at FROM projects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// SetCurrent marks id as the current project and clears the flag on every
// other project. An id of 0 clears the current project.
func (s *SQLiteDatabase) SetCurrent(id tempo.ProjectID) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE projects SET current = 0 WHERE current = 1"); err != nil {
		return fmt.Errorf("clearing current project: %w", err)
	}

	if id != 0 {
		res, err := tx.ExecContext(ctx, "UPDATE projects SET current = 1 WHERE id = ?", int64(id))
		if err != nil {
			return fmt.Errorf("setting current project: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("setting current project: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("project %d: %w", id, tempo.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CurrentProject implements tempo.ProjectResolver.
func (s *SQLiteDatabase) CurrentProject() (tempo.ProjectID, string, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT id, title, current, created_at FROM projects WHERE current = 1 LIMIT 1")
	p, err := scanProject(row)
	if err != nil {
		return 0, "", fmt.Errorf("finding current project: %w", err)
	}
	if p == nil {
		return 0, "", nil
	}
	return p.ID, p.Title, nil
}

// ProjectTitle implements tempo.ProjectResolver.
func (s *SQLiteDatabase) ProjectTitle(id tempo.ProjectID) (string, error) {
	p, err := s.FindProject(id)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", fmt.Errorf("project %d: %w", id, tempo.ErrNotFound)
	}
	return p.Title, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanProject returns nil, nil when row is empty.
func scanProject(row scanner) (*Project, error) {
	var (
		p       Project
		id      int64
		current int64
		created int64
	)
	if err := row.Scan(&id, &p.Title, &current, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ID = tempo.ProjectID(id)
	p.Current = current != 0
	p.CreatedAt = time.Unix(created, 0).UTC()
	return &p, nil
}
