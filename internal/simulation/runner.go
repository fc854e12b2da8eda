// Package simulation plays batches of episodes between two policies and
// reports or records the results.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexwar/internal/game/ai"
	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/dice"
	"github.com/cory-johannsen/hexwar/internal/game/engine"
	"github.com/cory-johannsen/hexwar/internal/game/scenario"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
	"github.com/cory-johannsen/hexwar/internal/observability"
	"github.com/cory-johannsen/hexwar/internal/storage/postgres"
)

// MaxConsecutiveRejections aborts an episode whose policy keeps submitting
// illegal actions.
const MaxConsecutiveRejections = 100

// ErrStuckPolicy is returned when a policy exceeds MaxConsecutiveRejections.
var ErrStuckPolicy = errors.New("simulation: policy keeps choosing illegal actions")

// Recorder persists finished episodes. *postgres.EpisodeRepository satisfies it.
type Recorder interface {
	Record(ctx context.Context, ep postgres.Episode) error
}

// Seat is one side of the table.
type Seat struct {
	Name   string
	Policy ai.Policy
}

// Config describes a batch.
type Config struct {
	Scenario *scenario.Scenario
	Episodes int
	// Seed is the first episode's dice seed; episode i uses Seed+i. Zero uses
	// the crypto source and records no seed.
	Seed    uint64
	Options engine.Options
	Seats   [2]Seat
}

// Result summarizes one finished episode.
type Result struct {
	ID        uuid.UUID
	Verdict   engine.Verdict
	Turn      int
	Steps     int
	Rejected  int
	Survivors [2]int
	// Returns is the summed reward each player received for its own actions.
	Returns [2]float64
}

// Runner plays the configured batch.
//
// Runner satisfies server.Service: Start plays the batch and Stop interrupts it
// between steps.
type Runner struct {
	cat      *catalog.Catalog
	cfg      Config
	recorder Recorder
	logger   *zap.Logger

	// stopCtx is cancelled by Stop, including a Stop that lands before Start.
	stopCtx context.Context
	stop    context.CancelFunc

	mu      sync.Mutex
	results []Result
}

// NewRunner builds a Runner. recorder may be nil to skip persistence.
//
// Precondition: cat, cfg.Scenario, both seat policies and logger must be non-nil.
// Postcondition: err is non-nil when cfg.Episodes < 1 or cfg.Options is invalid.
func NewRunner(cat *catalog.Catalog, cfg Config, recorder Recorder, logger *zap.Logger) (*Runner, error) {
	if cfg.Episodes < 1 {
		return nil, fmt.Errorf("simulation: episodes must be >= 1, got %d", cfg.Episodes)
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	for i, s := range cfg.Seats {
		if s.Policy == nil {
			return nil, fmt.Errorf("simulation: seat %d has no policy", i+1)
		}
	}
	stopCtx, stop := context.WithCancel(context.Background())
	return &Runner{cat: cat, cfg: cfg, recorder: recorder, logger: logger, stopCtx: stopCtx, stop: stop}, nil
}

// Start plays every episode. It returns nil when the batch completes or Stop
// is called, and returns at once if Stop already ran.
func (r *Runner) Start() error {
	_, err := r.Run(r.stopCtx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop interrupts Start. It is safe to call before Start and more than once.
func (r *Runner) Stop() {
	r.stop()
}

// Results returns the episodes finished so far.
func (r *Runner) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Run plays the batch under ctx and returns the finished episodes.
//
// Postcondition: on cancellation the finished episodes are returned together
// with ctx's error.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	start := time.Now()
	for i := 0; i < r.cfg.Episodes; i++ {
		res, err := r.play(ctx, i)
		if err != nil {
			return r.Results(), err
		}
		r.mu.Lock()
		r.results = append(r.results, res)
		r.mu.Unlock()
	}
	results := r.Results()
	s := Summarize(results)
	r.logger.Info("batch finished",
		zap.String("scenario", r.cfg.Scenario.Name),
		zap.Int("episodes", len(results)),
		zap.Int("player1_wins", s.Wins[0]),
		zap.Int("player2_wins", s.Wins[1]),
		zap.Int("draws", s.Draws),
		zap.Float64("mean_steps", s.MeanSteps),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

func (r *Runner) source(ordinal int) (dice.Source, *uint64) {
	if r.cfg.Seed == 0 {
		return dice.NewCryptoSource(), nil
	}
	seed := r.cfg.Seed + uint64(ordinal)
	return dice.NewSeededSource(seed), &seed
}

func (r *Runner) play(ctx context.Context, ordinal int) (Result, error) {
	id := uuid.New()
	logger := observability.EpisodeLogger(r.logger, id, ordinal+1, r.cfg.Scenario.Name)
	src, seed := r.source(ordinal)
	orch, err := engine.NewOrchestrator(r.cat, src, logger, r.cfg.Options)
	if err != nil {
		return Result{}, err
	}

	started := time.Now()
	snap, _, err := orch.Reset(r.cfg.Scenario)
	if err != nil {
		return Result{}, fmt.Errorf("episode %d: %w", ordinal+1, err)
	}

	res := Result{ID: id}
	streak := 0
	for !orch.Verdict().Over() {
		if err := ctx.Err(); err != nil {
			logger.Info("episode interrupted", zap.Int("steps", snap.Steps))
			return Result{}, err
		}
		acting, ok := snap.Acting()
		if !ok {
			return Result{}, fmt.Errorf("episode %d: no acting unit in a running episode", ordinal+1)
		}
		mask, err := orch.ActionMask()
		if err != nil {
			return Result{}, fmt.Errorf("episode %d: %w", ordinal+1, err)
		}
		seat := r.cfg.Seats[acting.Player-unit.Player1]
		idx, err := seat.Policy.Choose(snap, mask)
		if err != nil {
			return Result{}, fmt.Errorf("episode %d: policy %s: %w", ordinal+1, seat.Name, err)
		}
		step, err := orch.Step(idx)
		if err != nil {
			return Result{}, fmt.Errorf("episode %d: %w", ordinal+1, err)
		}
		res.Returns[acting.Player-unit.Player1] += step.Reward
		if step.Info.Rejected != nil {
			res.Rejected++
			streak++
			if streak >= MaxConsecutiveRejections {
				return Result{}, fmt.Errorf("episode %d: %w (%s)", ordinal+1, ErrStuckPolicy, seat.Name)
			}
			continue
		}
		streak = 0
		snap = step.Observation
	}

	res.Verdict = orch.Verdict()
	res.Turn = snap.Turn
	res.Steps = snap.Steps
	for _, u := range snap.Units {
		res.Survivors[u.Player-unit.Player1]++
	}
	logger.Info("episode finished",
		zap.Stringer("verdict", res.Verdict),
		zap.Int("turn", res.Turn),
		zap.Int("steps", res.Steps),
		zap.Int("rejected", res.Rejected),
	)

	if r.recorder != nil {
		ep := postgres.Episode{
			ID:            id,
			Scenario:      r.cfg.Scenario.Name,
			Seed:          seed,
			Player1Policy: r.cfg.Seats[0].Name,
			Player2Policy: r.cfg.Seats[1].Name,
			Terminated:    res.Verdict.Terminated,
			Truncated:     res.Verdict.Truncated,
			Turns:         res.Turn,
			Steps:         res.Steps,
			Rejected:      res.Rejected,
			Player1Units:  res.Survivors[0],
			Player2Units:  res.Survivors[1],
			StartedAt:     started,
			FinishedAt:    time.Now(),
		}
		if w := res.Verdict.Winner; w != nil {
			ep.Winner = int(*w)
		}
		if err := r.recorder.Record(ctx, ep); err != nil {
			logger.Error("recording episode", zap.Error(err))
			return Result{}, fmt.Errorf("episode %d: recording: %w", ordinal+1, err)
		}
	}
	return res, nil
}

// Summary aggregates a batch.
type Summary struct {
	Episodes  int
	Wins      [2]int
	Draws     int
	MeanSteps float64
}

// Summarize folds results into a Summary.
func Summarize(results []Result) Summary {
	s := Summary{Episodes: len(results)}
	total := 0
	for _, r := range results {
		total += r.Steps
		if w := r.Verdict.Winner; w != nil {
			s.Wins[*w-unit.Player1]++
		} else {
			s.Draws++
		}
	}
	if len(results) > 0 {
		s.MeanSteps = float64(total) / float64(len(results))
	}
	return s
}
