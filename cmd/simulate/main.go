// Package main provides the simulator binary that plays batches of episodes
// between two policies.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexwar/internal/config"
	"github.com/cory-johannsen/hexwar/internal/game/ai"
	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/dice"
	"github.com/cory-johannsen/hexwar/internal/game/engine"
	"github.com/cory-johannsen/hexwar/internal/game/scenario"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
	"github.com/cory-johannsen/hexwar/internal/observability"
	"github.com/cory-johannsen/hexwar/internal/scripting"
	"github.com/cory-johannsen/hexwar/internal/server"
	"github.com/cory-johannsen/hexwar/internal/simulation"
	"github.com/cory-johannsen/hexwar/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "", "scenario file; overrides simulation.scenario")
	episodes := flag.Int("episodes", 0, "episodes to play; overrides simulation.episodes when > 0")
	p1 := flag.String("p1", "", "player 1 policy (random, planner, human); overrides simulation.player1")
	p2 := flag.String("p2", "", "player 2 policy (random, planner, human); overrides simulation.player2")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *scenarioPath != "" {
		cfg.Simulation.Scenario = *scenarioPath
	}
	if *episodes > 0 {
		cfg.Simulation.Episodes = *episodes
	}
	if *p1 != "" {
		cfg.Simulation.Player1 = *p1
	}
	if *p2 != "" {
		cfg.Simulation.Player2 = *p2
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cat, err := catalog.LoadDir(cfg.Content.WeaponsDir, cfg.Content.UnitsDir)
	if err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.Int("weapons", cat.WeaponCount()),
		zap.Int("unit_types", len(cat.UnitTypeIDs())),
	)

	sc, err := scenario.Load(cfg.Simulation.Scenario)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}
	if err := sc.Validate(cat); err != nil {
		logger.Fatal("validating scenario", zap.String("scenario", cfg.Simulation.Scenario), zap.Error(err))
	}

	registry, closeScripts := policies(&cfg, logger)
	defer closeScripts()

	var seats [2]simulation.Seat
	for i, name := range []string{cfg.Simulation.Player1, cfg.Simulation.Player2} {
		pol, err := registry.New(name, unit.Player(i+1))
		if err != nil {
			logger.Fatal("building policy", zap.Int("player", i+1), zap.Error(err))
		}
		seats[i] = simulation.Seat{Name: name, Policy: pol}
	}

	var recorder simulation.Recorder
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		repo, closeRepo, err := postgres.OpenEpisodeRepository(ctx, cfg.Database, 5*time.Second)
		cancel()
		if err != nil {
			logger.Fatal("opening episode log", zap.Error(err))
		}
		defer closeRepo()
		recorder = repo
		logger.Info("episode recording enabled", zap.String("host", cfg.Database.Host))
	}

	runner, err := simulation.NewRunner(cat, simulation.Config{
		Scenario: sc,
		Episodes: cfg.Simulation.Episodes,
		Seed:     cfg.Engine.Seed,
		Options:  options(cfg.Engine),
		Seats:    seats,
	}, recorder, logger)
	if err != nil {
		logger.Fatal("creating runner", zap.Error(err))
	}

	logger.Info("simulator initialized",
		zap.String("scenario", sc.Name),
		zap.Int("episodes", cfg.Simulation.Episodes),
		zap.String("player1", seats[0].Name),
		zap.String("player2", seats[1].Name),
		zap.Uint64("seed", cfg.Engine.Seed),
		zap.Duration("startup", time.Since(start)),
	)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("simulation", runner)
	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	s := simulation.Summarize(runner.Results())
	fmt.Fprintf(os.Stdout, "%s: %d episodes, p1 %d, p2 %d, draws %d, mean steps %.1f [%s]\n",
		sc.Name, s.Episodes, s.Wins[0], s.Wins[1], s.Draws, s.MeanSteps, time.Since(start))
}

// options maps the engine configuration onto orchestrator options.
func options(e config.EngineConfig) engine.Options {
	return engine.Options{
		MaxTurns:             e.MaxTurns,
		IllegalActionPenalty: e.IllegalActionPenalty,
		WinReward:            e.WinReward,
		LossReward:           e.LossReward,
		BoardCols:            e.BoardCols,
		BoardRows:            e.BoardRows,
	}
}

// policies registers every policy kind. Lua scripts and the planner domain
// are loaded only when a seat asks for the planner. The returned func
// releases the Lua VMs.
func policies(cfg *config.Config, logger *zap.Logger) (*ai.Registry, func()) {
	reg := ai.NewRegistry()
	closers := []func(){}

	seedFor := func(p unit.Player) dice.Source {
		if cfg.Engine.Seed == 0 {
			return dice.NewCryptoSource()
		}
		return dice.NewSeededSource(cfg.Engine.Seed ^ uint64(p)<<32)
	}

	mustRegister := func(name string, f ai.Factory) {
		if err := reg.Register(name, f); err != nil {
			logger.Fatal("registering policy", zap.String("policy", name), zap.Error(err))
		}
	}

	mustRegister("random", func(p unit.Player) (ai.Policy, error) {
		return ai.NewRandomPolicy(seedFor(p)), nil
	})
	mustRegister("human", func(unit.Player) (ai.Policy, error) {
		return ai.NewHumanPolicy(os.Stdin, os.Stdout), nil
	})

	var domain *ai.Domain
	var scripts *scripting.Manager
	mustRegister("planner", func(p unit.Player) (ai.Policy, error) {
		if domain == nil {
			d, err := ai.LoadDomain(cfg.Agent.DomainFile)
			if err != nil {
				return nil, err
			}
			domain = d
			scripts = scripting.NewManager(dice.NewLoggedRoller(seedFor(p), logger), logger)
			closers = append(closers, scripts.Close)
			logger.Info("planner domain loaded",
				zap.String("domain", d.ID),
				zap.Int("methods", len(d.Methods)),
			)
		}
		scope := fmt.Sprintf("player%d", p)
		if err := scripts.LoadScope(scope, cfg.Agent.ScriptDir, cfg.Agent.InstructionLimit); err != nil {
			return nil, err
		}
		return ai.NewPlanner(domain, scripts, scope), nil
	})

	return reg, func() {
		for _, c := range closers {
			c()
		}
	}
}
