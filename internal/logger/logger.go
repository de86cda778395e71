/*
Package logger wires zerolog up as the process-wide logger, with a
human-readable console writer on TTYs and the standard library log output
redirected through it.
*/
package logger

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
	stdlog "log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trinity999/UniRun/internal/config"
)

var zerologger zerolog.Logger

// resolveLevel picks the global log level. An explicitly configured
// app.log_level always wins; otherwise development mode defaults to
// debug and everything else keeps the configured default.
func resolveLevel(configured bool, level zerolog.Level, devMode bool) zerolog.Level {
	if configured {
		return level
	}
	if devMode {
		return zerolog.DebugLevel
	}
	return level
}

type logWrapper struct {
	zerolog.Logger
}

func (l logWrapper) Write(p []byte) (n int, err error) {
	n = len(p)
	if n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	l.Info().Msg(string(p))
	return
}

// InitializeLogger configures the global zerolog logger. Progress lines
// from the runner use carriage returns on stdout, so logs go to stderr.
func InitializeLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg := config.GetConfig()
	zerolog.SetGlobalLevel(resolveLevel(config.LogLevelConfigured(), cfg.App.LogLevel, config.IsDevMode()))

	if isatty.IsTerminal(os.Stderr.Fd()) {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: zerolog.TimeFormatUnix}
		zerologger = zerolog.New(output)
	} else {
		zerologger = zerolog.New(os.Stderr)
	}

	zerologger = zerologger.With().Timestamp().Logger()

	log.Logger = zerologger

	stdlog.SetFlags(0)
	stdlog.SetOutput(logWrapper{zerologger})
}
