// Package store keeps slicing jobs and their layers in a SQLite database.
package store

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/samber/lo"

	"github.com/chazu/strata/pkg/layerio"
	"github.com/chazu/strata/pkg/slicer"
)

//go:embed schema.sql
var schema string

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a job id is unknown.
var ErrNotFound = errors.New("store: job not found")

// Job is the stored summary of one slicing run.
type Job struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createdAt"`
	LayerThickness float64   `json:"layerThickness"`
	BaseAngle      float64   `json:"baseAngle"`
	AngleIncrement float64   `json:"angleIncrement"`
	HatchSpacing   float64   `json:"hatchSpacing"`
	LayerCount     int       `json:"layerCount"`
	FailedLayers   int       `json:"failedLayers"`
}

// JobFor describes a run of cfg that produced layers.
func JobFor(name string, cfg slicer.Config, layers []slicer.Layer, failed int) Job {
	return Job{
		Name:           name,
		LayerThickness: cfg.LayerThickness,
		BaseAngle:      cfg.Hatch.BaseAngle,
		AngleIncrement: cfg.Hatch.AngleIncrement,
		HatchSpacing:   cfg.Hatch.Spacing,
		LayerCount:     len(layers),
		FailedLayers:   failed,
	}
}

// LayerSummary is the per-layer row without its geometry.
type LayerSummary struct {
	Index        int     `json:"index"`
	Z            float64 `json:"z"`
	LayerID      int64   `json:"layerId"`
	Angle        float64 `json:"angle"`
	ContourCount int     `json:"contourCount"`
	HatchCount   int     `json:"hatchCount"`
	PathLength   float64 `json:"pathLength"`
}

// Store is a job repository backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	s := New(db)
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. Call Init before use.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init applies the schema. It is idempotent.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveJob stores job and its layers in one transaction and returns the new
// job id. job.ID and job.CreatedAt are assigned here.
func (s *Store) SaveJob(ctx context.Context, job Job, layers []slicer.Layer) (string, error) {
	job.ID = uuid.NewString()
	job.CreatedAt = time.Now().UTC()
	job.LayerCount = len(layers)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO jobs (id, name, created_at, layer_thickness, base_angle, angle_increment, hatch_spacing, layer_count, failed_layers)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, job.ID, job.Name, job.CreatedAt.Format(timeLayout),
		job.LayerThickness, job.BaseAngle, job.AngleIncrement, job.HatchSpacing,
		job.LayerCount, job.FailedLayers)
	if err != nil {
		return "", fmt.Errorf("store: insert job: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO layers (job_id, idx, z, layer_id, angle, contour_count, hatch_count, path_length, data)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	header := layerio.Header{
		LayerThickness: job.LayerThickness,
		BaseAngle:      job.BaseAngle,
		AngleIncrement: job.AngleIncrement,
		HatchSpacing:   job.HatchSpacing,
	}
	for _, l := range layers {
		var buf bytes.Buffer
		if err := layerio.Encode(&buf, header, []slicer.Layer{l}); err != nil {
			return "", err
		}
		_, err := stmt.ExecContext(ctx, job.ID, l.Index, l.Z, l.ID, l.Angle,
			len(l.Contours), len(l.Hatches), l.Toolpath.Length(), buf.Bytes())
		if err != nil {
			return "", fmt.Errorf("store: insert layer %d: %w", l.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slicer.Logger().Debug("stored job", "id", job.ID, "layers", len(layers))
	return job.ID, nil
}

const jobColumns = `id, name, created_at, layer_thickness, base_angle, angle_increment, hatch_spacing, layer_count, failed_layers`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (Job, error) {
	var j Job
	var created string
	if err := row.Scan(&j.ID, &j.Name, &created, &j.LayerThickness, &j.BaseAngle,
		&j.AngleIncrement, &j.HatchSpacing, &j.LayerCount, &j.FailedLayers); err != nil {
		return Job{}, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Job{}, fmt.Errorf("store: job %s: bad created_at %q: %w", j.ID, created, err)
	}
	j.CreatedAt = t
	return j, nil
}

// GetJob returns the job with the given id.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// ListJobs returns every job, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// LoadLayers returns the stored layers of a job in ascending Z.
func (s *Store) LoadLayers(ctx context.Context, id string) ([]slicer.Layer, error) {
	if _, err := s.GetJob(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT idx, data FROM layers WHERE job_id = ? ORDER BY z, idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var layers []slicer.Layer
	for rows.Next() {
		var idx int
		var data []byte
		if err := rows.Scan(&idx, &data); err != nil {
			return nil, err
		}
		_, decoded, err := layerio.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("store: job %s layer %d: %w", id, idx, err)
		}
		layers = append(layers, decoded...)
	}
	return layers, rows.Err()
}

// LayerSummaries returns the per-layer statistics of a job.
func (s *Store) LayerSummaries(ctx context.Context, id string) ([]LayerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT idx, z, layer_id, angle, contour_count, hatch_count, path_length
        FROM layers
        WHERE job_id = ?
        ORDER BY z, idx
    `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LayerSummary
	for rows.Next() {
		var ls LayerSummary
		if err := rows.Scan(&ls.Index, &ls.Z, &ls.LayerID, &ls.Angle,
			&ls.ContourCount, &ls.HatchCount, &ls.PathLength); err != nil {
			return nil, err
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

// TotalPathLength sums the toolpath length of every layer of a job.
func (s *Store) TotalPathLength(ctx context.Context, id string) (float64, error) {
	summaries, err := s.LayerSummaries(ctx, id)
	if err != nil {
		return 0, err
	}
	return lo.SumBy(summaries, func(l LayerSummary) float64 { return l.PathLength }), nil
}

// DeleteJob removes a job and its layers.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM layers WHERE job_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// OpenSQLite opens the sqlite database at dbPath, creating its directory.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000&_pragma=foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
