//go:build linux
// +build linux

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

package core

import (
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// setAffinity binds the current goroutine's OS thread to a specific CPU
// core to improve cache locality. Best effort: failure only logs.
func setAffinity(workerID, cpuID int) {
	// LockOSThread keeps the goroutine from migrating OS threads between
	// this call and the SchedSetaffinity syscall. The worker runs for the
	// lifetime of the scheduler, so no matching Unlock.
	runtime.LockOSThread()

	var cpuSet unix.CPUSet
	cpuSet.Zero()
	cpuSet.Set(cpuID)

	tid := unix.Gettid()
	if err := unix.SchedSetaffinity(tid, &cpuSet); err != nil {
		log.Debug().
			Int("worker", workerID).
			Int("cpu", cpuID).
			Err(err).
			Msg("failed to set CPU affinity")
	}
}
