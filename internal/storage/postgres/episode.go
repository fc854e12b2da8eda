package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Episode is the summary row written when an episode ends.
type Episode struct {
	ID       uuid.UUID
	Scenario string
	// Seed is nil when the episode used the crypto dice source.
	Seed          *uint64
	Player1Policy string
	Player2Policy string
	// Winner is 1 or 2, or 0 for a draw.
	Winner     int
	Terminated bool
	Truncated  bool
	Turns      int
	Steps      int
	// Rejected counts illegal actions submitted during the episode.
	Rejected     int
	Player1Units int
	Player2Units int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration is how long the episode ran.
func (e Episode) Duration() time.Duration { return e.FinishedAt.Sub(e.StartedAt) }

// ErrEpisodeNotFound is returned when an episode lookup yields no results.
var ErrEpisodeNotFound = errors.New("episode not found")

// ErrEpisodeExists is returned when an episode id is recorded twice.
var ErrEpisodeExists = errors.New("episode already recorded")

// EpisodeRepository persists episode summaries.
type EpisodeRepository struct {
	db *pgxpool.Pool
}

// NewEpisodeRepository creates an EpisodeRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEpisodeRepository(db *pgxpool.Pool) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

const episodeColumns = `id, scenario, seed, player1_policy, player2_policy, winner,
	terminated, truncated, turns, steps, rejected, player1_units, player2_units,
	started_at, finished_at`

// Record inserts ep.
//
// Precondition: ep.ID must be set; ep.Winner must be 0, 1 or 2.
// Postcondition: Returns ErrEpisodeExists when ep.ID was already recorded.
func (r *EpisodeRepository) Record(ctx context.Context, ep Episode) error {
	var seed *int64
	if ep.Seed != nil {
		s := int64(*ep.Seed)
		seed = &s
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO episodes (`+episodeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		ep.ID, ep.Scenario, seed, ep.Player1Policy, ep.Player2Policy, ep.Winner,
		ep.Terminated, ep.Truncated, ep.Turns, ep.Steps, ep.Rejected,
		ep.Player1Units, ep.Player2Units, ep.StartedAt, ep.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrEpisodeExists
		}
		return fmt.Errorf("inserting episode: %w", err)
	}
	return nil
}

// Get retrieves one episode by id.
//
// Postcondition: Returns the Episode or ErrEpisodeNotFound.
func (r *EpisodeRepository) Get(ctx context.Context, id uuid.UUID) (Episode, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE id = $1`, id)
	ep, err := scanEpisode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Episode{}, ErrEpisodeNotFound
		}
		return Episode{}, fmt.Errorf("querying episode: %w", err)
	}
	return ep, nil
}

// Recent returns up to limit episodes, most recently finished first.
//
// Precondition: limit > 0.
func (r *EpisodeRepository) Recent(ctx context.Context, limit int) ([]Episode, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+episodeColumns+` FROM episodes
		 ORDER BY finished_at DESC, id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent episodes: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning episode: %w", err)
		}
		out = append(out, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating episodes: %w", err)
	}
	return out, nil
}

// Tally counts wins per side and draws for a scenario.
func (r *EpisodeRepository) Tally(ctx context.Context, scenario string) (p1, p2, draws int, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE winner = 1),
		   COUNT(*) FILTER (WHERE winner = 2),
		   COUNT(*) FILTER (WHERE winner = 0)
		 FROM episodes WHERE scenario = $1`, scenario,
	).Scan(&p1, &p2, &draws)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("tallying episodes: %w", err)
	}
	return p1, p2, draws, nil
}

func scanEpisode(row pgx.Row) (Episode, error) {
	var ep Episode
	var seed *int64
	err := row.Scan(&ep.ID, &ep.Scenario, &seed, &ep.Player1Policy, &ep.Player2Policy,
		&ep.Winner, &ep.Terminated, &ep.Truncated, &ep.Turns, &ep.Steps, &ep.Rejected,
		&ep.Player1Units, &ep.Player2Units, &ep.StartedAt, &ep.FinishedAt)
	if err != nil {
		return Episode{}, err
	}
	if seed != nil {
		s := uint64(*seed)
		ep.Seed = &s
	}
	return ep, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
