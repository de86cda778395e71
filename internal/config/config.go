/*
Package config loads runtime configuration from an optional TOML file and
.env overrides, with struct-tag defaults.
*/
package config

/*
unirun — batch recon automation and root-domain extraction in Go
Copyright (C) 2026  trinity999

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"time"

	"github.com/rs/zerolog"
)

// AppConfig carries environment-wide settings.
type AppConfig struct {
	Environment string        `koanf:"environment" default:"development"`
	LogLevel    zerolog.Level `koanf:"log_level" default:"1"`
}

// RunnerConfig carries defaults for the batch command runner.
type RunnerConfig struct {
	Marker     string        `koanf:"marker" default:"scope.txt"`
	Shell      string        `koanf:"shell" default:"sh"`
	Timeout    time.Duration `koanf:"timeout" default:"30m"`
	MaxWorkers int           `koanf:"max_workers" default:"0"`
}

// ExtractConfig carries defaults for the domain extraction pipeline.
type ExtractConfig struct {
	OutputDir  string `koanf:"output_dir" default:"output/roots"`
	BufferSize int    `koanf:"buffer_size" default:"65536"`
	Compress   bool   `koanf:"compress" default:"false"`
}

// MetricsConfig controls the optional Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled" default:"false"`
	Port    int  `koanf:"port" default:"9090"`
}

// Config is the root configuration structure.
type Config struct {
	App     AppConfig     `koanf:"app"`
	Runner  RunnerConfig  `koanf:"runner"`
	Extract ExtractConfig `koanf:"extract"`
	Metrics MetricsConfig `koanf:"metrics"`
}
