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
	"os"
	"sync"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	_k      *koanf.Koanf
	_config *Config
	once    sync.Once
)

// GetConfig returns the loaded configuration, initializing it on first
// use.
func GetConfig() *Config {
	if _config == nil {
		if err := InitConfig(); err != nil {
			log.Error().Err(err).Msg("error initializing config")
		}
	}
	return _config
}

// GetEnv returns the value of an environment variable or a fallback.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// InitConfig loads configuration once: struct defaults first, then the
// optional TOML file named by UNIRUN_CONFIG (default unirun.toml), then a
// .env overlay. A missing config file is not an error; every setting has
// a default.
func InitConfig() error {
	var err error
	once.Do(func() {
		_k = koanf.New(".")
		_config = &Config{}

		if _err := defaults.Set(_config); _err != nil {
			err = _err
			return
		}

		configFile := GetEnv("UNIRUN_CONFIG", "unirun.toml")
		if _, statErr := os.Stat(configFile); statErr == nil {
			if loadErr := _k.Load(file.Provider(configFile), toml.Parser()); loadErr != nil {
				log.Error().Err(loadErr).Str("file", configFile).Msg("error loading config [TOML]")
			}
		}
		if _, statErr := os.Stat(".env"); statErr == nil {
			_k.Load(file.Provider(".env"), dotenv.Parser())
		}

		if _err := _k.Unmarshal("", _config); _err != nil {
			err = _err
			return
		}

		zerolog.SetGlobalLevel(_config.App.LogLevel)
	})

	return err
}

// IsDevMode reports whether the app runs in a development environment.
func IsDevMode() bool {
	return GetConfig().App.Environment == "development"
}

// LogLevelConfigured reports whether app.log_level was set explicitly in
// the config file or .env overlay, as opposed to holding its struct
// default.
func LogLevelConfigured() bool {
	GetConfig()
	return _k != nil && _k.Exists("app.log_level")
}
