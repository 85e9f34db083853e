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
	"sync/atomic"
	"unsafe"
)

var (
	emptyCQEvent CQEvent
	emptySQEntry SQEntry

	cqEventSize = unsafe.Sizeof(emptyCQEvent)
	sqEntrySize = unsafe.Sizeof(emptySQEntry)
	uint32Size  = unsafe.Sizeof(uint32(0))
)

// SubmissionQueue is the producer half of the ring protocol. The user side
// appends entries and advances the kernel-visible tail; the kernel consumes
// entries and advances the kernel-visible head. Only this side ever writes
// KTail, and only the kernel ever writes KHead.
//
// SQEHead and SQETail shadow the kernel cells so that slot bookkeeping never
// re-reads shared memory. The invariant SQETail-SQEHead <= RingEntries holds
// at all times, and RingEntries is a power of two so an index is always
// position&RingMask.
//
// SubmissionQueue is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L84
type SubmissionQueue struct {
	KHead    *uint32
	KTail    *uint32
	KFlags   *uint32
	KDropped *uint32
	Array    *uint32
	SQEs     *SQEntry
	SQEHead  uint32
	SQETail  uint32

	RingMask    uint32
	RingEntries uint32

	// zeroed marks physical slots that were reclaimed and pre-zeroed, so
	// acquisition can skip the defensive zero-fill. Purely an optimization;
	// it never changes what the kernel sees.
	zeroed []bool
}

func newSubmissionQueue(ring *Region, offsets *SQRingOffsets, sqes *Region, mask uint32, entries uint32) SubmissionQueue {
	return SubmissionQueue{
		KHead:       ring.Uint32(uintptr(offsets.Head)),
		KTail:       ring.Uint32(uintptr(offsets.Tail)),
		KFlags:      ring.Uint32(uintptr(offsets.Flags)),
		KDropped:    ring.Uint32(uintptr(offsets.Dropped)),
		Array:       ring.Uint32(uintptr(offsets.Array)),
		SQEs:        (*SQEntry)(sqes.Pointer(0)),
		RingMask:    mask,
		RingEntries: entries,
		zeroed:      make([]bool, entries),
	}
}

// Acquire hands out the next writable slot, or nil when the ring is full.
// It records the physical index in the kernel-visible index array and
// advances the shadow tail. The array write is a plain store; the release
// point for everything written into the slot is PublishTail.
func (q *SubmissionQueue) Acquire() *SQEntry {
	head := atomic.LoadUint32(&q.SQEHead)
	tail := atomic.LoadUint32(&q.SQETail)
	if tail == head+q.RingEntries {
		return nil
	}

	index := tail & q.RingMask
	*(*uint32)(unsafe.Add(unsafe.Pointer(q.Array), uintptr(index)*uint32Size)) = index
	atomic.StoreUint32(&q.SQETail, tail+1)

	sqe := (*SQEntry)(unsafe.Add(unsafe.Pointer(q.SQEs), uintptr(index)*sqEntrySize))
	if q.zeroed[index] {
		q.zeroed[index] = false
	} else {
		*sqe = SQEntry{}
	}
	return sqe
}

// PublishTail stores the shadow tail into the kernel-visible tail cell and
// returns the number of entries pending submission. The store has release
// semantics: every entry and index-array write made before it is visible to
// the kernel once the new tail is.
func (q *SubmissionQueue) PublishTail() uint32 {
	head := atomic.LoadUint32(&q.SQEHead)
	tail := atomic.LoadUint32(&q.SQETail)
	atomic.StoreUint32(q.KTail, tail)
	return tail - head
}

// RefreshFromKernel acquire-loads the kernel-visible head into the shadow
// head, learning which slots the kernel has consumed.
func (q *SubmissionQueue) RefreshFromKernel() {
	atomic.StoreUint32(&q.SQEHead, atomic.LoadUint32(q.KHead))
}

// SpaceLeft reports how many slots can still be acquired before the ring is
// full. The subtraction is wraparound-tolerant.
func (q *SubmissionQueue) SpaceLeft() uint32 {
	head := atomic.LoadUint32(&q.SQEHead)
	tail := atomic.LoadUint32(&q.SQETail)
	return q.RingEntries - (tail - head)
}

func (q *SubmissionQueue) IsFull() bool {
	return q.SpaceLeft() == 0
}

// Dropped returns the kernel's counter of submission entries it rejected
// because of an invalid index-array slot.
func (q *SubmissionQueue) Dropped() uint32 {
	return atomic.LoadUint32(q.KDropped)
}

// Flags returns the kernel-visible submission status flags (SQStatus bits).
func (q *SubmissionQueue) Flags() SQStatus {
	return SQStatus(atomic.LoadUint32(q.KFlags))
}

// NeedsWakeup reports whether a kernel-side submission poller has gone to
// sleep and the next Enter must carry EnterSQWakeup.
func (q *SubmissionQueue) NeedsWakeup() bool {
	return q.Flags()&SQStatusNeedWakeup != 0
}

// slotIndex maps a slot pointer back to its physical index, rejecting
// pointers that don't address an entry of this ring.
func (q *SubmissionQueue) slotIndex(sqe *SQEntry) (uint32, bool) {
	base := uintptr(unsafe.Pointer(q.SQEs))
	ptr := uintptr(unsafe.Pointer(sqe))
	if ptr < base || (ptr-base)%sqEntrySize != 0 {
		return 0, false
	}
	index := (ptr - base) / sqEntrySize
	if index >= uintptr(q.RingEntries) {
		return 0, false
	}
	return uint32(index), true
}

// Reclaim zeroes a slot the kernel has finished with and marks it so the
// next acquisition of that slot skips the zero-fill. A slot may only be
// reclaimed once the kernel-visible head has moved past it; reclaiming an
// in-flight slot is refused rather than trusted to caller discipline.
func (q *SubmissionQueue) Reclaim(sqe *SQEntry) bool {
	index, ok := q.slotIndex(sqe)
	if !ok {
		return false
	}

	// Positions [khead, tail) are in flight and carry distinct masked
	// indices because tail-khead never exceeds RingEntries. The slot is
	// busy exactly when the one candidate position for its index falls in
	// that window.
	khead := atomic.LoadUint32(q.KHead)
	tail := atomic.LoadUint32(&q.SQETail)
	position := khead + ((index - khead) & q.RingMask)
	if int32(position-tail) < 0 {
		return false
	}

	*sqe = SQEntry{}
	q.zeroed[index] = true
	return true
}

// ReclaimedCount returns how many slots currently sit pre-zeroed.
func (q *SubmissionQueue) ReclaimedCount() int {
	count := 0
	for _, z := range q.zeroed {
		if z {
			count++
		}
	}
	return count
}

// ClearReclaimed forgets all pre-zeroed slot markings.
func (q *SubmissionQueue) ClearReclaimed() {
	for i := range q.zeroed {
		q.zeroed[i] = false
	}
}
