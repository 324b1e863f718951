package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// ExportRunRepository implements [models.Repository] for [models.ExportRun] persistence.
type ExportRunRepository struct {
	db *sql.DB
}

// NewExportRunRepository creates a new [ExportRunRepository] with the given database connection
func NewExportRunRepository(db *sql.DB) *ExportRunRepository {
	return &ExportRunRepository{db: db}
}

var _ models.Repository[*models.ExportRun] = (*ExportRunRepository)(nil)

const exportRunColumns = `id, resource, format, output_dir, pages, items, error_message, started_at, completed_at`

// Create inserts a new run with a generated ID
func (r *ExportRunRepository) Create(run *models.ExportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	run.SetID(shared.GenerateID())

	query := `INSERT INTO export_runs (` + exportRunColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		run.ID(), run.Resource(), run.Format(), run.OutputDir(), run.Pages(), run.Items(),
		nullString(run.ErrorMessage()), run.StartedAt(), run.CompletedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert export run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *ExportRunRepository) Get(id string) (*models.ExportRun, error) {
	query := `SELECT ` + exportRunColumns + ` FROM export_runs WHERE id = ?`

	run, err := scanExportRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("export run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query export run: %w", err)
	}

	return run, nil
}

// Update writes the counters and completion fields of an existing run
func (r *ExportRunRepository) Update(run *models.ExportRun) error {
	query := `
		UPDATE export_runs
		SET pages = ?, items = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, run.Pages(), run.Items(), nullString(run.ErrorMessage()), run.CompletedAt(), run.ID())
	if err != nil {
		return fmt.Errorf("failed to update export run: %w", err)
	}

	return requireRow(result, "export run", run.ID())
}

// Delete removes a run by ID
func (r *ExportRunRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM export_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete export run: %w", err)
	}

	return requireRow(result, "export run", id)
}

// List retrieves runs newest first. Supported criteria: "resource" (string) and "limit" (int).
func (r *ExportRunRepository) List(criteria map[string]any) ([]*models.ExportRun, error) {
	query := `SELECT ` + exportRunColumns + ` FROM export_runs WHERE 1 = 1`
	args := []any{}

	if resource, ok := criteria["resource"].(string); ok && resource != "" {
		query += " AND resource = ?"
		args = append(args, resource)
	}

	query += " ORDER BY started_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ExportRun
	for rows.Next() {
		run, err := scanExportRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExportRun(row scanner) (*models.ExportRun, error) {
	var (
		id, resource, format, outputDir string
		pages, items                    int
		errorMessage                    sql.NullString
		startedAt                       time.Time
		completedAt                     sql.NullTime
	)

	if err := row.Scan(&id, &resource, &format, &outputDir, &pages, &items, &errorMessage, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	run := models.NewExportRun(resource, format, outputDir)
	run.SetID(id)
	run.SetStartedAt(startedAt)
	run.SetCounts(pages, items)

	var done *time.Time
	if completedAt.Valid {
		done = &completedAt.Time
	}
	run.Restore(done, errorMessage.String)

	return run, nil
}
