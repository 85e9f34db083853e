//go:build linux

/*
	Copyright 2023 Loophole Labs

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

		   http://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package iouring

import (
	"syscall"

	"github.com/brickingsoft/errors"
)

const (
	// DefaultEntries is used when NewRing is asked for zero entries.
	DefaultEntries = 32
	// MaxEntries is the ABI ceiling for a submission ring.
	MaxEntries = 4096
)

// Ring owns the io_uring file descriptor, the three ring mappings and the
// two queue halves constructed over them. A Ring serves a single caller
// goroutine; the only true concurrency is between that goroutine and the
// kernel, which the acquire/release protocol inside SubmissionQueue and
// CompletionQueue is built for.
type Ring struct {
	SQ       SubmissionQueue
	CQ       CompletionQueue
	Flags    uint32
	Features uint32

	fd        int
	sqRegion  *Region
	cqRegion  *Region
	sqeRegion *Region
}

// NewRing sets up an io_uring instance with the given number of submission
// entries. Zero selects DefaultEntries; anything above MaxEntries is
// clamped. The kernel may round the capacity up to a power of two.
func NewRing(entries uint32) (*Ring, error) {
	return NewRingWithFlags(entries, 0)
}

// NewRingWithFlags is NewRing with io_uring setup flags (Setup* bits).
// SetupSQE128 and SetupCQE32 are refused: the mapping sizes and the typed
// queue walkers assume the 64-byte SQE and 16-byte CQE layouts.
func NewRingWithFlags(entries uint32, flags Setup) (*Ring, error) {
	if flags&(SetupSQE128|SetupCQE32) != 0 {
		return nil, errors.From(ErrInvalidArgument, errors.WithMeta("reason", "big SQE/CQE layouts are not supported"))
	}
	if entries == 0 {
		entries = DefaultEntries
	}
	if entries > MaxEntries {
		entries = MaxEntries
	}

	params := Params{Flags: uint32(flags)}
	fd, err := setup(entries, &params)
	if err != nil {
		return nil, err
	}

	r := &Ring{
		Flags:    params.Flags,
		Features: params.Features,
		fd:       fd,
	}
	if err = r.mapRings(&params); err != nil {
		_ = syscall.Close(fd)
		return nil, err
	}
	return r, nil
}

// FD returns the ring file descriptor.
func (r *Ring) FD() int {
	return r.fd
}

// Supports reports whether the kernel advertised the given ring feature at
// setup time.
func (r *Ring) Supports(feature Feature) bool {
	return r.Features&uint32(feature) != 0
}

// GetSQEntry hands out the next free, zeroed submission slot, or nil when
// the ring is full. The caller populates it with one of the Prepare helpers
// before the next Submit; the slot stays owned by the caller until then.
func (r *Ring) GetSQEntry() *SQEntry {
	return r.SQ.Acquire()
}

// Submit publishes all acquired entries and tells the kernel to consume
// them, then refreshes both shadow indices. The returned count is how many
// entries the kernel actually accepted; a short count is not an error and
// the caller must re-submit the remainder.
func (r *Ring) Submit() (uint, error) {
	return r.submit(0)
}

// SubmitAndWait is Submit but blocks until at least waitNR completions are
// available or a signal interrupts the wait.
func (r *Ring) SubmitAndWait(waitNR uint32) (uint, error) {
	return r.submit(waitNR)
}

func (r *Ring) submit(waitNR uint32) (uint, error) {
	toSubmit := r.SQ.PublishTail()

	var flags EnterFlag
	if waitNR > 0 {
		flags |= EnterGetEvents
	}
	if r.SQ.NeedsWakeup() {
		flags |= EnterSQWakeup
	}

	accepted, err := r.Enter(toSubmit, waitNR, flags, nil)

	// Refresh both sides even on error: the kernel may have consumed
	// entries or produced completions before failing.
	r.SQ.RefreshFromKernel()
	r.CQ.RefreshTail()
	return accepted, err
}

// PeekCQEvent refreshes the completion tail and returns the oldest unread
// completion without consuming it, or nil when none are available.
func (r *Ring) PeekCQEvent() *CQEvent {
	r.CQ.RefreshTail()
	return r.CQ.Peek()
}

// CopyCQEvents refreshes the completion tail and copies up to len(dst)
// unread completions into dst without consuming them. Pair with CQAdvance
// once the copies have been handled.
func (r *Ring) CopyCQEvents(dst []CQEvent) int {
	r.CQ.RefreshTail()
	return r.CQ.CopyInto(dst)
}

// CQESeen marks a single peeked completion as consumed.
func (r *Ring) CQESeen(cqe *CQEvent) {
	if cqe != nil {
		r.CQAdvance(1)
	}
}

// CQAdvance marks count completions as consumed and immediately publishes
// the new head to the kernel. Publication is eager so a caller that never
// submits again still returns ring capacity to the kernel.
func (r *Ring) CQAdvance(count uint32) {
	if count > 0 {
		r.CQ.Advance(count)
		r.CQ.PublishHead()
	}
}

// CQOverflow returns the kernel's count of completions dropped because the
// completion ring was full.
func (r *Ring) CQOverflow() uint32 {
	return r.CQ.Overflow()
}

// SQSpaceLeft reports how many submission slots can still be acquired.
func (r *Ring) SQSpaceLeft() uint32 {
	return r.SQ.SpaceLeft()
}

func (r *Ring) SQFull() bool {
	return r.SQ.IsFull()
}

func (r *Ring) CQEmpty() bool {
	return r.CQ.IsEmpty()
}

// CQReady reports how many completions are unread, after refreshing the
// completion tail.
func (r *Ring) CQReady() uint32 {
	r.CQ.RefreshTail()
	return r.CQ.Available()
}

// ReclaimSQEntry returns a kernel-consumed slot to the pre-zeroed pool; see
// SubmissionQueue.Reclaim for the validation rules.
func (r *Ring) ReclaimSQEntry(sqe *SQEntry) bool {
	return r.SQ.Reclaim(sqe)
}

// Close unmaps the three ring regions and closes the ring file descriptor.
// The queues borrow the mappings, so no ring operation may run concurrently
// with or after Close.
func (r *Ring) Close() error {
	r.unmapRings()
	return syscall.Close(r.fd)
}
