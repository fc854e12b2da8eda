package simulation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/hexwar/internal/game/action"
	"github.com/cory-johannsen/hexwar/internal/game/ai"
	"github.com/cory-johannsen/hexwar/internal/game/dice"
	"github.com/cory-johannsen/hexwar/internal/game/engine"
	"github.com/cory-johannsen/hexwar/internal/game/scenario"
	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
	"github.com/cory-johannsen/hexwar/internal/simulation"
	"github.com/cory-johannsen/hexwar/internal/storage/postgres"
	"github.com/cory-johannsen/hexwar/internal/testutil"
)

var cat = testutil.Catalog()

type fakeRecorder struct {
	mu       sync.Mutex
	episodes []postgres.Episode
	err      error
}

func (f *fakeRecorder) Record(_ context.Context, ep postgres.Episode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.episodes = append(f.episodes, ep)
	return nil
}

// stubborn always asks for the same slot, legal or not.
type stubborn struct{ idx int }

func (s stubborn) Choose(state.Snapshot, action.Mask) (int, error) { return s.idx, nil }

func skirmish() *scenario.Scenario {
	return &scenario.Scenario{
		Name:  "test_skirmish",
		Board: &scenario.Board{Cols: 8, Rows: 8},
		Units: []scenario.UnitSpec{
			{ID: 1, UnitType: "intercessor", Player: 1, Col: 0, Row: 0},
			{ID: 2, UnitType: "scout", Player: 1, Col: 1, Row: 0},
			{ID: 3, UnitType: "termagant", Player: 2, Col: 6, Row: 6},
			{ID: 4, UnitType: "termagant", Player: 2, Col: 7, Row: 6},
		},
	}
}

func config(seed uint64, episodes int) simulation.Config {
	opts := engine.DefaultOptions()
	opts.MaxTurns = 3
	return simulation.Config{
		Scenario: skirmish(),
		Episodes: episodes,
		Seed:     seed,
		Options:  opts,
		Seats: [2]simulation.Seat{
			{Name: "random", Policy: ai.NewRandomPolicy(dice.NewSeededSource(seed + 100))},
			{Name: "random", Policy: ai.NewRandomPolicy(dice.NewSeededSource(seed + 200))},
		},
	}
}

func TestRunner_PlaysAndRecordsBatch(t *testing.T) {
	rec := &fakeRecorder{}
	core, logs := observer.New(zap.InfoLevel)
	r, err := simulation.NewRunner(cat, config(10, 3), rec, zap.New(core))
	require.NoError(t, err)

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.True(t, res.Verdict.Over())
		assert.Positive(t, res.Steps)
		assert.Zero(t, res.Rejected, "random policy only picks legal slots")
	}

	require.Len(t, rec.episodes, 3)
	for i, ep := range rec.episodes {
		require.NotNil(t, ep.Seed)
		assert.Equal(t, uint64(10+i), *ep.Seed)
		assert.Equal(t, results[i].ID, ep.ID)
		assert.Equal(t, "test_skirmish", ep.Scenario)
		assert.Equal(t, results[i].Survivors, [2]int{ep.Player1Units, ep.Player2Units})
		assert.False(t, ep.FinishedAt.Before(ep.StartedAt))
	}

	finished := logs.FilterMessage("episode finished").All()
	require.Len(t, finished, 3)
	assert.Equal(t, "test_skirmish", finished[0].ContextMap()["scenario"])
	assert.Len(t, logs.FilterMessage("batch finished").All(), 1)
}

func TestRunner_SeededBatchesReplay(t *testing.T) {
	run := func() []simulation.Result {
		r, err := simulation.NewRunner(cat, config(77, 2), nil, zap.NewNop())
		require.NoError(t, err)
		res, err := r.Run(context.Background())
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Steps, b[i].Steps)
		assert.Equal(t, a[i].Verdict.String(), b[i].Verdict.String())
		assert.Equal(t, a[i].Survivors, b[i].Survivors)
		assert.Equal(t, a[i].Returns, b[i].Returns)
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	r, err := simulation.NewRunner(cat, config(1, 5), nil, zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunner_StopEndsStart(t *testing.T) {
	cfg := config(0, 1_000_000)
	r, err := simulation.NewRunner(cat, cfg, nil, zap.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Start() }()
	require.Eventually(t, func() bool { return len(r.Results()) > 0 }, 10*time.Second, 5*time.Millisecond)
	r.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_StopBeforeStart(t *testing.T) {
	r, err := simulation.NewRunner(cat, config(0, 1_000_000), nil, zap.NewNop())
	require.NoError(t, err)
	r.Stop()

	done := make(chan error, 1)
	go func() { done <- r.Start() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Empty(t, r.Results())
	case <-time.After(5 * time.Second):
		t.Fatal("Start ignored an earlier Stop")
	}
	r.Stop()
}

func TestRunner_StuckPolicy(t *testing.T) {
	cfg := config(3, 1)
	cfg.Seats[0] = simulation.Seat{Name: "stubborn", Policy: stubborn{idx: action.SlotFight}}
	r, err := simulation.NewRunner(cat, cfg, nil, zap.NewNop())
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, simulation.ErrStuckPolicy)
	assert.Contains(t, err.Error(), "stubborn")
}

func TestRunner_RecorderFailureStopsBatch(t *testing.T) {
	boom := errors.New("db down")
	r, err := simulation.NewRunner(cat, config(5, 3), &fakeRecorder{err: boom}, zap.NewNop())
	require.NoError(t, err)
	results, err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, results)
}

func TestNewRunner_Rejects(t *testing.T) {
	cfg := config(1, 0)
	_, err := simulation.NewRunner(cat, cfg, nil, zap.NewNop())
	assert.Error(t, err, "zero episodes")

	cfg = config(1, 1)
	cfg.Seats[1].Policy = nil
	_, err = simulation.NewRunner(cat, cfg, nil, zap.NewNop())
	assert.Error(t, err, "missing policy")

	cfg = config(1, 1)
	cfg.Options.MaxTurns = 0
	_, err = simulation.NewRunner(cat, cfg, nil, zap.NewNop())
	assert.Error(t, err, "bad options")
}

func winner(p unit.Player) *unit.Player { return &p }

func TestSummarize(t *testing.T) {
	results := []simulation.Result{
		{Steps: 10, Verdict: engine.Verdict{Terminated: true, Winner: winner(1)}},
		{Steps: 20, Verdict: engine.Verdict{Terminated: true, Winner: winner(2)}},
		{Steps: 30, Verdict: engine.Verdict{Truncated: true}},
		{Steps: 40, Verdict: engine.Verdict{Truncated: true, Winner: winner(1)}},
	}
	s := simulation.Summarize(results)
	assert.Equal(t, 4, s.Episodes)
	assert.Equal(t, [2]int{2, 1}, s.Wins)
	assert.Equal(t, 1, s.Draws)
	assert.InDelta(t, 25.0, s.MeanSteps, 1e-9)

	assert.Equal(t, simulation.Summary{}, simulation.Summarize(nil))
}
