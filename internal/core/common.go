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
	"context"
	"time"
)

// Common constants shared by the scheduler and the pipelines built on it.
const (
	// MaxShardQueueSize is the capacity of a worker's queue.
	MaxShardQueueSize = 1000

	// WorkerMultiplier scales the worker count relative to CPU cores.
	// Batch work is dominated by waiting on child processes and disk, so
	// oversubscription pays off.
	WorkerMultiplier = 2

	// DefaultDiskBufferSize is the default size for bufio.Writer instances
	// used for output files.
	DefaultDiskBufferSize = 64 * 1024

	// DefaultCommandTimeout bounds a single external command invocation.
	DefaultCommandTimeout = 30 * time.Minute

	// Submission retry pacing when a worker queue reports backpressure.
	SubmitRetryDelay = 250 * time.Millisecond
	MaxSubmitRetries = 15

	// DefaultWorkerRate is the initial per-worker rate limit in work items
	// per second.
	DefaultWorkerRate = 100
)

// WorkItem represents a unit of work dispatched to the scheduler: one
// directory to run a command in, or one source file to extract domains
// from. Items are pooled via sync.Pool to reduce allocations.
type WorkItem struct {
	// Key shards the item onto a worker and identifies it in logs.
	Key string
	// Path is the filesystem location the callback operates on.
	Path string
	// Attempt tracks retry attempts for failed processing.
	Attempt int
	// Callback is the function to execute for this work item.
	Callback WorkCallback
	// Ctx is the context for this specific task.
	Ctx context.Context
}

// WorkCallback is the function signature for work item callbacks.
type WorkCallback func(item *WorkItem) error
