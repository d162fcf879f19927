/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config holds the user-editable application configuration.
// The canvas, store and interaction layers receive an explicit AppConfig
// (or a sub-struct of it) through their constructors; there is no global
// configuration singleton.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

type InteractionConfig struct {
	// Tolerances are in screen pixels; they are multiplied by the current
	// world-per-pixel scale before hit testing.
	HitTolerancePx          float64 `yaml:"hit_tolerance_px"`
	ControlPointTolerancePx float64 `yaml:"control_point_tolerance_px"`
	PolygonSnapDistancePx   float64 `yaml:"polygon_snap_distance_px"`
	SnapToGrid              bool    `yaml:"snap_to_grid"`
	GridSize                float64 `yaml:"grid_size"`
}

type HistoryConfig struct {
	MaxSize int `yaml:"max_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int               `yaml:"config_version"`
	General       GeneralConfig     `yaml:"general"`
	Interaction   InteractionConfig `yaml:"interaction"`
	History       HistoryConfig     `yaml:"history"`
	Logging       LoggingConfig     `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Interaction: InteractionConfig{
			HitTolerancePx:          5.0,
			ControlPointTolerancePx: 12.0,
			PolygonSnapDistancePx:   15.0,
			SnapToGrid:              false,
			GridSize:                10.0,
		},
		History: HistoryConfig{MaxSize: 100},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvTelemetryOptIn = "ANC_TELEMETRY_OPT_IN"
	EnvSnapToGrid     = "ANC_SNAP_TO_GRID"
	EnvGridSize       = "ANC_GRID_SIZE"
	EnvHistoryMax     = "ANC_HISTORY_MAX"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "ANC_LOG_LEVEL"
	EnvLogFormat = "ANC_LOG_FORMAT"
	EnvLogSource = "ANC_LOG_SOURCE"
	EnvLogFile   = "ANC_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "AnnoCanvas")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "AnnoCanvas")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "annocanvas")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.Interaction.HitTolerancePx > 0 {
		dst.Interaction.HitTolerancePx = src.Interaction.HitTolerancePx
	}
	if src.Interaction.ControlPointTolerancePx > 0 {
		dst.Interaction.ControlPointTolerancePx = src.Interaction.ControlPointTolerancePx
	}
	if src.Interaction.PolygonSnapDistancePx > 0 {
		dst.Interaction.PolygonSnapDistancePx = src.Interaction.PolygonSnapDistancePx
	}
	dst.Interaction.SnapToGrid = src.Interaction.SnapToGrid
	if src.Interaction.GridSize > 0 {
		dst.Interaction.GridSize = src.Interaction.GridSize
	}
	if src.History.MaxSize > 0 {
		dst.History.MaxSize = src.History.MaxSize
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapToGrid)); v != "" {
		cfg.Interaction.SnapToGrid = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvGridSize)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Interaction.GridSize = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryMax)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.History.MaxSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func isTruthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}
