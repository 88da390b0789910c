package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Student is one roster entry. Records are created by bulk import and are
// immutable afterwards except for administrative correction. Roll numbers are
// never stored here; they are derived by rank (see ranking.go).
type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Father     string    `json:"father"`
	ClassGroup string    `json:"class_group"`
	LabGroup   string    `json:"lab_group"`
	CreatedAt  time.Time `json:"created_at"`
	Source     string    `json:"source,omitempty"`
}

// Repository reads and writes the roster in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a roster repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListStudents returns the full roster. Callers re-rank on every read, so the
// stored order (insertion order) is the stable tie-break for equal names.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, father, class_group, lab_group, created_at, source
		FROM students
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Father, &s.ClassGroup, &s.LabGroup, &s.CreatedAt, &s.Source); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetStudent returns a single student by id, or nil when absent.
func (r *Repository) GetStudent(ctx context.Context, id string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, father, class_group, lab_group, created_at, source
		FROM students WHERE id = $1
	`, id)
	var s Student
	if err := row.Scan(&s.ID, &s.Name, &s.Father, &s.ClassGroup, &s.LabGroup, &s.CreatedAt, &s.Source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// UpsertStudents bulk-loads roster entries, keyed by id. Missing group fields
// default to G1 to match the import sheets.
func (r *Repository) UpsertStudents(ctx context.Context, students []Student, source string) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	count := 0
	for _, s := range students {
		if s.ID == "" || s.Name == "" {
			return 0, errors.New("student requires id and name")
		}
		if s.ClassGroup == "" {
			s.ClassGroup = "G1"
		}
		if s.LabGroup == "" {
			s.LabGroup = "G1"
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO students (id, name, father, class_group, lab_group, source)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				father = EXCLUDED.father,
				class_group = EXCLUDED.class_group,
				lab_group = EXCLUDED.lab_group
		`, s.ID, s.Name, s.Father, s.ClassGroup, s.LabGroup, source)
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, tx.Commit()
}

// CountStudents returns the roster size.
func (r *Repository) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n)
	return n, err
}
