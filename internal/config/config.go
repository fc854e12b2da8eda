// Package config provides Viper-based configuration loading for the hexwar
// simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the episode log.
type DatabaseConfig struct {
	// Enabled turns episode recording on. The engine itself never needs a database.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EngineConfig holds the episode rules that are not part of a scenario.
type EngineConfig struct {
	// MaxTurns is the last full turn before an episode is truncated.
	MaxTurns int `mapstructure:"max_turns"`
	// IllegalActionPenalty is the reward for a masked action; must be <= 0.
	IllegalActionPenalty float64 `mapstructure:"illegal_action_penalty"`
	WinReward            float64 `mapstructure:"win_reward"`
	LossReward           float64 `mapstructure:"loss_reward"`
	// Seed makes dice reproducible. Zero selects the crypto source.
	Seed uint64 `mapstructure:"seed"`
	// BoardCols and BoardRows size scenarios without a board block.
	BoardCols int `mapstructure:"board_cols"`
	BoardRows int `mapstructure:"board_rows"`
}

// ContentConfig locates the static unit and weapon tables.
type ContentConfig struct {
	UnitsDir   string `mapstructure:"units_dir"`
	WeaponsDir string `mapstructure:"weapons_dir"`
}

// AgentConfig configures the scripted opponent.
type AgentConfig struct {
	// DomainFile is the YAML planner domain.
	DomainFile string `mapstructure:"domain_file"`
	// ScriptDir holds the Lua files whose functions are method preconditions.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit bounds every Lua call; 0 means the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// SimulationConfig drives cmd/simulate.
type SimulationConfig struct {
	Scenario string `mapstructure:"scenario"`
	Episodes int    `mapstructure:"episodes"`
	// Player1 and Player2 name a policy: "random", "planner" or "human".
	Player1 string `mapstructure:"player1"`
	Player2 string `mapstructure:"player2"`
}

// Config is the top-level application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Content    ContentConfig    `mapstructure:"content"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateDatabase(c.Database),
		validateLogging(c.Logging),
		validateEngine(c.Engine),
		validateContent(c.Content),
		validateAgent(c.Agent),
		validateSimulation(c.Simulation),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	if !d.Enabled {
		return nil
	}
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.MaxTurns < 1 {
		errs = append(errs, fmt.Sprintf("engine.max_turns must be >= 1, got %d", e.MaxTurns))
	}
	if e.IllegalActionPenalty > 0 {
		errs = append(errs, fmt.Sprintf("engine.illegal_action_penalty must be <= 0, got %g", e.IllegalActionPenalty))
	}
	if e.BoardCols < 1 || e.BoardRows < 1 {
		errs = append(errs, fmt.Sprintf("engine.board_cols and engine.board_rows must be >= 1, got %dx%d", e.BoardCols, e.BoardRows))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.UnitsDir == "" {
		errs = append(errs, "content.units_dir must not be empty")
	}
	if c.WeaponsDir == "" {
		errs = append(errs, "content.weapons_dir must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateAgent(a AgentConfig) error {
	if a.InstructionLimit < 0 {
		return fmt.Errorf("agent.instruction_limit must be >= 0, got %d", a.InstructionLimit)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.Episodes < 1 {
		errs = append(errs, fmt.Sprintf("simulation.episodes must be >= 1, got %d", s.Episodes))
	}
	validPolicies := map[string]bool{"random": true, "planner": true, "human": true}
	for name, p := range map[string]string{"player1": s.Player1, "player2": s.Player2} {
		if !validPolicies[p] {
			errs = append(errs, fmt.Sprintf("simulation.%s must be one of [random, planner, human], got %q", name, p))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with HEXWAR_ prefix
	v.SetEnvPrefix("HEXWAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "hexwar")
	v.SetDefault("database.password", "hexwar")
	v.SetDefault("database.name", "hexwar")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.max_turns", 5)
	v.SetDefault("engine.illegal_action_penalty", -0.1)
	v.SetDefault("engine.win_reward", 1.0)
	v.SetDefault("engine.loss_reward", -1.0)
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.board_cols", 12)
	v.SetDefault("engine.board_rows", 12)

	v.SetDefault("content.units_dir", "content/units")
	v.SetDefault("content.weapons_dir", "content/weapons")

	v.SetDefault("agent.domain_file", "content/ai/domain.yaml")
	v.SetDefault("agent.script_dir", "content/ai/scripts")
	v.SetDefault("agent.instruction_limit", 100000)

	v.SetDefault("simulation.scenario", "content/scenarios/skirmish.yaml")
	v.SetDefault("simulation.episodes", 1)
	v.SetDefault("simulation.player1", "planner")
	v.SetDefault("simulation.player2", "random")
}
