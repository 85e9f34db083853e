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

// CompletionQueue mirrors SubmissionQueue with the roles reversed: the
// kernel produces entries and advances the kernel-visible tail, the user
// side consumes them and advances the kernel-visible head. Only the kernel
// writes KTail; only this side writes KHead.
//
// CompletionQueue is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L108
type CompletionQueue struct {
	KHead     *uint32
	KTail     *uint32
	KFlags    *uint32
	KOverflow *uint32
	CQEs      *CQEvent
	CQEHead   uint32
	CQETail   uint32

	RingMask    uint32
	RingEntries uint32
}

func newCompletionQueue(ring *Region, offsets *CQRingOffsets, mask uint32, entries uint32) CompletionQueue {
	cq := CompletionQueue{
		KHead:       ring.Uint32(uintptr(offsets.Head)),
		KTail:       ring.Uint32(uintptr(offsets.Tail)),
		KOverflow:   ring.Uint32(uintptr(offsets.Overflow)),
		CQEs:        (*CQEvent)(ring.Pointer(uintptr(offsets.CQEs))),
		RingMask:    mask,
		RingEntries: entries,
	}
	if offsets.Flags != 0 {
		cq.KFlags = ring.Uint32(uintptr(offsets.Flags))
	}
	return cq
}

// RefreshTail acquire-loads the kernel-visible tail into the shadow tail.
// The acquire pairs with the kernel's release store, so every completion
// entry at a position before the new tail is fully written once the load
// returns.
func (q *CompletionQueue) RefreshTail() {
	atomic.StoreUint32(&q.CQETail, atomic.LoadUint32(q.KTail))
}

// Available reports the number of unread completion entries, wraparound
// tolerant.
func (q *CompletionQueue) Available() uint32 {
	head := atomic.LoadUint32(&q.CQEHead)
	tail := atomic.LoadUint32(&q.CQETail)
	return tail - head
}

func (q *CompletionQueue) IsEmpty() bool {
	return q.Available() == 0
}

// Peek returns a view of the oldest unread entry without consuming it, or
// nil when no entries are available. The view borrows ring memory and is
// only valid until the head is advanced past it.
func (q *CompletionQueue) Peek() *CQEvent {
	head := atomic.LoadUint32(&q.CQEHead)
	tail := atomic.LoadUint32(&q.CQETail)
	if tail == head {
		return nil
	}
	return (*CQEvent)(unsafe.Add(unsafe.Pointer(q.CQEs), uintptr(head&q.RingMask)*cqEventSize))
}

// CopyInto copies up to len(dst) unread entries out of the ring, handling
// wraparound, without consuming them. It returns the number copied.
func (q *CompletionQueue) CopyInto(dst []CQEvent) int {
	available := q.Available()
	count := uint32(len(dst))
	if count > available {
		count = available
	}
	if count == 0 {
		return 0
	}

	head := atomic.LoadUint32(&q.CQEHead)
	ring := unsafe.Slice(q.CQEs, q.RingEntries)
	first := head & q.RingMask
	n := copy(dst[:count], ring[first:])
	if uint32(n) < count {
		copy(dst[n:count], ring[:count-uint32(n)])
	}
	return int(count)
}

// Advance moves the shadow head forward by count consumed entries. It does
// not publish to the kernel; until PublishHead runs, the kernel still
// believes those slots are occupied.
func (q *CompletionQueue) Advance(count uint32) {
	if count > 0 {
		head := atomic.LoadUint32(&q.CQEHead)
		atomic.StoreUint32(&q.CQEHead, head+count)
	}
}

// PublishHead release-stores the shadow head into the kernel-visible head,
// returning the consumed slots' capacity to the kernel.
func (q *CompletionQueue) PublishHead() {
	atomic.StoreUint32(q.KHead, atomic.LoadUint32(&q.CQEHead))
}

// Overflow returns the kernel's count of completions dropped because the
// ring was full. It is a passive diagnostic; dropped completions are never
// recovered.
func (q *CompletionQueue) Overflow() uint32 {
	return atomic.LoadUint32(q.KOverflow)
}
