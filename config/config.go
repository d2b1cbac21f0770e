/*
 * config.go, part of pdbprep.
 *
 * Copyright 2026 The pdbprep Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package config holds the settings of pdbprep, read from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//Config holds all pdbprep settings.
type Config struct {
	//Directory under which one work directory per structure is made.
	OutputBase string `yaml:"output_base"`

	Fetch   FetchConfig   `yaml:"fetch"`
	Engine  EngineConfig  `yaml:"engine"`
	Scorer  ScorerConfig  `yaml:"scorer"`
	Gapfill GapfillConfig `yaml:"gapfill"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Plot    PlotConfig    `yaml:"plot"`
	Logging LoggingConfig `yaml:"logging"`
}

//FetchConfig configures downloads.
type FetchConfig struct {
	URLTemplate string `yaml:"url_template"` //one %s, for the identifier
	Timeout     string `yaml:"timeout"`
}

//EngineConfig configures the modeling engine driver.
type EngineConfig struct {
	Command string `yaml:"command"` //empty means no engine
	Relax   bool   `yaml:"relax"`   //the driver can relax poses
}

//ScorerConfig configures the statistical potential.
type ScorerConfig struct {
	Command string  `yaml:"command"`
	DataDir string  `yaml:"data_dir"`
	Weight  float64 `yaml:"weight"` //must be positive
}

//GapfillConfig configures the gap filling loop.
type GapfillConfig struct {
	Decoys       int `yaml:"decoys"`
	BudgetFactor int `yaml:"budget_factor"`
}

type ViewerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	OpenCommand string `yaml:"open_command"`
}

type PlotConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` //debug, info, warn or error
}

//Default returns the default configuration.
func Default() *Config {
	return &Config{
		OutputBase: "prepared_proteins",
		Fetch: FetchConfig{
			URLTemplate: "https://files.rcsb.org/download/%s.pdb",
			Timeout:     "60s",
		},
		Scorer:  ScorerConfig{Weight: 0.1},
		Gapfill: GapfillConfig{Decoys: 5, BudgetFactor: 10},
		Plot:    PlotConfig{Enabled: true},
		Logging: LoggingConfig{Level: "info"},
	}
}

//DefaultPath returns the usual place of the configuration file,
//pdbprep.yaml in the user configuration directory, or in the current
//one if there is no such directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pdbprep.yaml"
	}
	return filepath.Join(dir, "pdbprep", "pdbprep.yaml")
}

//Load reads the configuration in path on top of the defaults. A missing
//file just gives the defaults. Environment overrides are applied in
//both cases.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//Save writes the configuration to path, creating its directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PDBPREP_OUTPUT"); v != "" {
		c.OutputBase = v
	}
	if v := os.Getenv("PDBPREP_ENGINE"); v != "" {
		c.Engine.Command = v
	}
	if v := os.Getenv("PDBPREP_SCORER"); v != "" {
		c.Scorer.Command = v
	}
	if v := os.Getenv("PDBPREP_FETCH_URL"); v != "" {
		c.Fetch.URLTemplate = v
	}
}

//FetchTimeout returns the download timeout, 60 s if it can't be parsed.
func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

var levels = []string{"debug", "info", "warn", "error"}

//Validate checks the values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.OutputBase == "" {
		return fmt.Errorf("output_base can't be empty")
	}
	if strings.Count(c.Fetch.URLTemplate, "%s") != 1 {
		return fmt.Errorf("fetch.url_template must contain exactly one %%s: %q", c.Fetch.URLTemplate)
	}
	if c.Gapfill.Decoys < 0 || c.Gapfill.BudgetFactor < 0 {
		return fmt.Errorf("gapfill.decoys and gapfill.budget_factor can't be negative")
	}
	if c.Scorer.Weight <= 0 {
		return fmt.Errorf("scorer.weight must be positive, leave scorer.command empty to score with the energy alone: %g", c.Scorer.Weight)
	}
	for _, l := range levels {
		if c.Logging.Level == l {
			return nil
		}
	}
	return fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Logging.Level, levels)
}
