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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigDefaults(t *testing.T) {
	// Point at a config file that does not exist so only struct defaults
	// apply, regardless of the working directory the tests run from.
	t.Setenv("UNIRUN_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	require.NoError(t, InitConfig())
	cfg := GetConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "scope.txt", cfg.Runner.Marker)
	assert.Equal(t, "sh", cfg.Runner.Shell)
	assert.Equal(t, 30*time.Minute, cfg.Runner.Timeout)
	assert.Equal(t, 0, cfg.Runner.MaxWorkers)
	assert.Equal(t, filepath.Join("output", "roots"), filepath.Clean(cfg.Extract.OutputDir))
	assert.Equal(t, 65536, cfg.Extract.BufferSize)
	assert.False(t, cfg.Extract.Compress)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)

	// With no config file the level holds its struct default and must
	// not report as explicitly configured.
	assert.False(t, LogLevelConfigured())
}

func TestInitConfigIsIdempotent(t *testing.T) {
	require.NoError(t, InitConfig())
	first := GetConfig()
	require.NoError(t, InitConfig())
	assert.Same(t, first, GetConfig())
}

func TestGetEnv(t *testing.T) {
	t.Setenv("UNIRUN_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnv("UNIRUN_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("UNIRUN_TEST_KEY_ABSENT", "fallback"))
}

func TestIsDevMode(t *testing.T) {
	t.Setenv("UNIRUN_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))
	assert.True(t, IsDevMode())
}
