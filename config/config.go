/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the roster configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/utils"
	"gopkg.in/yaml.v3"
)

// LogConfig configures the named loggers created by utils.NewLogger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // text or json
	FileEnabled bool   `yaml:"file_enabled"`
	Dir         string `yaml:"dir"`
	MaxAgeDays  int    `yaml:"max_age_days"`
}

type Config struct {
	Database database.Config `yaml:"database"`
	Log      LogConfig       `yaml:"log"`
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)

// Default returns the configuration used when no file is given: a local
// SQLite database migrated on startup.
func Default() *Config {
	return &Config{
		Database: database.Config{
			ConnectionConfig:  *database.DefaultConnectionConfig(),
			DataMigrateConfig: database.MigrateOptions{EnableMigrateOnStartup: true, EnableForeignKey: true},
			DataInitConfig:    database.DataInitConfig{Environment: "development"},
		},
		Log: LogConfig{Level: "info", Format: "text", Dir: "logs", MaxAgeDays: 7},
	}
}

// Load reads a .env file next to path when present, expands ${VAR}
// references in the YAML document, and fills unset pool settings with
// defaults. Variables already set in the process win over .env entries.
func Load(path string) (*Config, error) {
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Database.ConnectionConfig.ApplyDefaults()
	return cfg, nil
}

// ConfigLoader returns the database section for database.InitDB.
func (c *Config) ConfigLoader() *database.Config {
	return &c.Database
}

// ApplyLogging configures level, format and file output of all loggers.
func (c *Config) ApplyLogging() {
	if c.Log.Level != "" {
		utils.ConfigureLogLevel(c.Log.Level)
	}
	if c.Log.Format != "" {
		utils.ConfigureLogFormat(c.Log.Format)
	}
	utils.ConfigureFileLog(c.Log.FileEnabled, c.Log.Dir, c.Log.MaxAgeDays)
}
