// Package config loads election parameters from defaults, an optional YAML
// file and CHAINVOTE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/takakv/chainvote/group"
)

const envPrefix = "CHAINVOTE"

type Election struct {
	Group         string `yaml:"group" mapstructure:"group"`
	Options       int    `yaml:"options" mapstructure:"options"`
	Voters        int    `yaml:"voters" mapstructure:"voters"`
	CommitteeSize int    `yaml:"committee_size" mapstructure:"committee_size"`
	Threshold     int    `yaml:"threshold" mapstructure:"threshold"`
	// MaxVotes bounds the decoded total. Zero means the number of voters.
	MaxVotes uint64 `yaml:"max_votes" mapstructure:"max_votes"`
	Workers  int    `yaml:"workers" mapstructure:"workers"`
}

type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Output string `yaml:"output" mapstructure:"output"`
}

type Config struct {
	Election Election `yaml:"election" mapstructure:"election"`
	Log      Log      `yaml:"log" mapstructure:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Election: Election{
			Group:         "ristretto255",
			Options:       3,
			Voters:        20,
			CommitteeSize: 5,
			Threshold:     3,
			MaxVotes:      0,
			Workers:       0,
		},
		Log: Log{
			Level:  "info",
			Output: "stderr",
		},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("election.group", cfg.Election.Group)
	v.SetDefault("election.options", cfg.Election.Options)
	v.SetDefault("election.voters", cfg.Election.Voters)
	v.SetDefault("election.committee_size", cfg.Election.CommitteeSize)
	v.SetDefault("election.threshold", cfg.Election.Threshold)
	v.SetDefault("election.max_votes", cfg.Election.MaxVotes)
	v.SetDefault("election.workers", cfg.Election.Workers)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.output", cfg.Log.Output)
}

// Load reads the configuration. An empty path uses only defaults and the
// environment. Environment variables take precedence over the file, e.g.
// CHAINVOTE_ELECTION_THRESHOLD.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error in read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the election parameters for consistency.
func (c *Config) Validate() error {
	e := c.Election
	if _, err := group.ByName(e.Group); err != nil {
		return err
	}
	if e.Options < 1 {
		return errors.New("election needs at least one option")
	}
	if e.Voters < 0 {
		return errors.New("number of voters cannot be negative")
	}
	if e.CommitteeSize < 1 {
		return errors.New("committee needs at least one member")
	}
	if e.Threshold < 1 || e.Threshold > e.CommitteeSize {
		return fmt.Errorf("threshold %d not in [1, %d]", e.Threshold, e.CommitteeSize)
	}
	return nil
}

// Bound returns the largest possible count of any option.
func (e Election) Bound() uint64 {
	if e.MaxVotes > 0 {
		return e.MaxVotes
	}
	return uint64(e.Voters)
}
