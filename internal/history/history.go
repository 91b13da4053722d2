package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/sketchbox/internal/shared/id"
	"github.com/GriffinCanCode/sketchbox/internal/shared/paths"
	"github.com/GriffinCanCode/sketchbox/internal/shared/utils"
	"github.com/bytedance/sonic"

	_ "modernc.org/sqlite"
)

// timeLayout has fixed-width fractions so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no run matches.
var ErrNotFound = errors.New("run not found")

// Entry is one recorded run.
type Entry struct {
	ID          id.HistoryID       `json:"id"`
	Kind        string             `json:"kind"`
	Description string             `json:"description"`
	Source      string             `json:"code"`
	Digest      string             `json:"digest"`
	RemoteID    string             `json:"animation_id,omitempty"`
	Outcome     string             `json:"outcome"`
	Errors      []string           `json:"errors"`
	FrameErrors int                `json:"frame_errors"`
	FixAttempts int                `json:"fix_attempts"`
	Stats       map[string]float64 `json:"stats,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ListOptions filters List.
type ListOptions struct {
	Limit   int
	Offset  int
	Kind    string
	Outcome string
}

// Store keeps run history in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and runs migrations. Use
// ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	if err := paths.Ensure(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts e, filling its ID, digest and creation time when unset.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = id.NewHistoryID()
	}
	if e.Digest == "" {
		e.Digest = utils.Digest(e.Source)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	errs, err := sonic.MarshalString(nonNil(e.Errors))
	if err != nil {
		return fmt.Errorf("encoding errors: %w", err)
	}
	stats := e.Stats
	if stats == nil {
		stats = map[string]float64{}
	}
	statsJSON, err := sonic.MarshalString(stats)
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, description, source, digest, remote_id, outcome,
		                  errors, frame_errors, fix_attempts, stats, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), e.Kind, e.Description, e.Source, e.Digest, e.RemoteID, e.Outcome,
		errs, e.FrameErrors, e.FixAttempts, statsJSON, e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// SetRemoteID links a recorded run to the id the animation service gave it.
func (s *Store) SetRemoteID(ctx context.Context, runID id.HistoryID, remoteID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET remote_id = ? WHERE id = ?`, remoteID, string(runID))
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

const selectRuns = `SELECT id, kind, description, source, digest, remote_id, outcome,
	errors, frame_errors, fix_attempts, stats, created_at FROM runs`

// Get returns the run with the given id or unique id prefix.
func (s *Store) Get(ctx context.Context, runID string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, runID))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	matches, err := s.query(ctx, selectRuns+` WHERE substr(id, 1, length(?1)) = ?1 ORDER BY created_at DESC LIMIT 2`, runID)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous run prefix %q", runID)
	}
}

// LastByDigest returns the most recent run of the same program.
func (s *Store) LastByDigest(ctx context.Context, digest string) (*Entry, error) {
	return scanEntry(s.db.QueryRowContext(ctx,
		selectRuns+` WHERE digest = ? ORDER BY created_at DESC LIMIT 1`, digest))
}

// List returns runs, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	var where []string
	var args []any
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, opts.Outcome)
	}

	query := selectRuns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, opts.Offset)

	return s.query(ctx, query, args...)
}

// Prune keeps the newest keep runs and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT ?
		)`, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e        Entry
		runID    string
		errsJSON string
		stats    string
		created  string
	)
	err := row.Scan(&runID, &e.Kind, &e.Description, &e.Source, &e.Digest, &e.RemoteID, &e.Outcome,
		&errsJSON, &e.FrameErrors, &e.FixAttempts, &stats, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	e.ID = id.HistoryID(runID)
	if err := sonic.UnmarshalString(errsJSON, &e.Errors); err != nil {
		return nil, fmt.Errorf("decoding errors of %s: %w", runID, err)
	}
	if err := sonic.UnmarshalString(stats, &e.Stats); err != nil {
		return nil, fmt.Errorf("decoding stats of %s: %w", runID, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("decoding time of %s: %w", runID, err)
	}
	return &e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
