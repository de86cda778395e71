/*
Package core provides the central logic for unirun: the shard scheduler,
the batch command runner and the domain extraction pipeline. It defines
common data structures and constants used across these components.
*/
package core

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

// customError is an error type that includes a retryable flag, allowing
// components to decide whether an operation that produced it should be
// retried.
type customError struct {
	message   string
	retryable bool
}

// NewError creates a new customError with the given message and retryable
// status.
func NewError(msg string, retryable bool) error {
	return &customError{
		message:   msg,
		retryable: retryable,
	}
}

// Error implements the standard error interface.
func (e *customError) Error() string {
	return e.message
}

// IsRetryable returns true if the error is designated as retryable.
func (e *customError) IsRetryable() bool {
	return e.retryable
}

// IsRetryable reports whether err is a retryable *customError. Unknown
// error types default to non-retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*customError); ok {
		return e.IsRetryable()
	}
	return false
}

// Common error values used within the core package.
var (
	// ErrQueueFull indicates that a worker's queue is at capacity and
	// cannot accept new work items. Retryable: the queue drains.
	ErrQueueFull = NewError("queue full", true)
	// ErrWorkerShutdown indicates that the scheduler is shutting down and
	// can no longer accept work.
	ErrWorkerShutdown = NewError("worker shutdown", false)
	// ErrRunCancelled indicates a batch run stopped on an interrupt or on
	// the first failure with continue-on-error disabled.
	ErrRunCancelled = NewError("run cancelled", false)
	// ErrPrerequisites indicates a run could not start at all: missing
	// base directory, empty command template, or explicitly named
	// subfolders that do not exist. Maps to exit code 2.
	ErrPrerequisites = NewError("prerequisites unmet", false)
)
