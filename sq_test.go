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
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

const fakeEntries = 8

// pinned forces objects whose addresses are stored as uintptrs onto the
// heap: stack-allocated objects move when the goroutine stack grows, which
// would silently invalidate the fake ring regions.
var pinned []any

func pin(v any) { pinned = append(pinned, v) }

// fakeSQRing lays out submission-ring metadata the way the kernel does, so
// the queue half can be exercised without an io_uring instance. The test
// plays the kernel's role by writing the head cell directly.
type fakeSQRing struct {
	head    uint32
	tail    uint32
	mask    uint32
	entries uint32
	flags   uint32
	dropped uint32
	array   [fakeEntries]uint32
	sqes    [fakeEntries]SQEntry
}

func newFakeSQ(ring *fakeSQRing) SubmissionQueue {
	pin(ring)
	ring.mask = fakeEntries - 1
	ring.entries = fakeEntries

	ringRegion := &Region{
		address: uintptr(unsafe.Pointer(ring)),
		size:    unsafe.Sizeof(*ring),
	}
	sqeRegion := &Region{
		address: uintptr(unsafe.Pointer(&ring.sqes[0])),
		size:    unsafe.Sizeof(ring.sqes),
	}
	offsets := &SQRingOffsets{
		Head:        uint32(unsafe.Offsetof(ring.head)),
		Tail:        uint32(unsafe.Offsetof(ring.tail)),
		RingMask:    uint32(unsafe.Offsetof(ring.mask)),
		RingEntries: uint32(unsafe.Offsetof(ring.entries)),
		Flags:       uint32(unsafe.Offsetof(ring.flags)),
		Dropped:     uint32(unsafe.Offsetof(ring.dropped)),
		Array:       uint32(unsafe.Offsetof(ring.array)),
	}
	return newSubmissionQueue(ringRegion, offsets, sqeRegion, ring.mask, ring.entries)
}

func TestSubmissionQueueAcquireUniqueSlots(t *testing.T) {
	ring := new(fakeSQRing)
	sq := newFakeSQ(ring)

	seen := make(map[*SQEntry]bool)
	for i := 0; i < fakeEntries; i++ {
		sqe := sq.Acquire()
		require.NotNil(t, sqe, "acquire %d", i)
		require.False(t, seen[sqe], "slot %d handed out twice", i)
		seen[sqe] = true
	}

	require.Nil(t, sq.Acquire(), "acquire beyond capacity must fail")
	require.True(t, sq.IsFull())
}

func TestSubmissionQueueSpaceAccounting(t *testing.T) {
	ring := new(fakeSQRing)
	sq := newFakeSQ(ring)

	for i := 0; i <= fakeEntries; i++ {
		used := sq.RingEntries - sq.SpaceLeft()
		require.Equal(t, uint32(i), used)
		require.Equal(t, sq.RingEntries, sq.SpaceLeft()+used)
		if i < fakeEntries {
			require.NotNil(t, sq.Acquire())
		}
	}
}

func TestSubmissionQueuePublishTail(t *testing.T) {
	ring := new(fakeSQRing)
	sq := newFakeSQ(ring)

	for i := 0; i < 3; i++ {
		require.NotNil(t, sq.Acquire())
	}

	count := sq.PublishTail()
	require.Equal(t, uint32(3), count)
	require.Equal(t, uint32(3), ring.tail, "kernel-visible tail must equal shadow tail")
	require.Equal(t, []uint32{0, 1, 2}, ring.array[:3], "index array must name the filled slots")

	// No acquisitions since the last publish.
	require.Equal(t, uint32(3), sq.PublishTail())
}

func TestSubmissionQueueFillDrainScenario(t *testing.T) {
	ring := new(fakeSQRing)
	sq := newFakeSQ(ring)

	for i := 0; i < fakeEntries; i++ {
		require.NotNil(t, sq.Acquire())
	}
	require.Nil(t, sq.Acquire())
	require.Equal(t, uint32(0), sq.SpaceLeft())
	require.Equal(t, uint32(fakeEntries), sq.PublishTail())

	// The kernel consumes everything.
	ring.head = ring.tail
	sq.RefreshFromKernel()

	require.Equal(t, uint32(fakeEntries), sq.SpaceLeft())
	require.False(t, sq.IsFull())
	require.NotNil(t, sq.Acquire())
}

func TestSubmissionQueueRefreshNeverRegresses(t *testing.T) {
	ring := new(fakeSQRing)
	sq := newFakeSQ(ring)

	for i := 0; i < 4; i++ {
		require.NotNil(t, sq.Acquire())
	}
	sq.PublishTail()

	ring.head = 2
	sq.RefreshFromKernel()
	require.Equal(t, uint32(6), sq.SpaceLeft())

	ring.head = 4
	sq.RefreshFromKernel()
	require.Equal(t, uint32(8), sq.SpaceLeft())

	// Re-reading the same head is a no-op.
	sq.RefreshFromKernel()
	require.Equal(t, uint32(8), sq.SpaceLeft())
}

func TestSubmissionQueueIndexWraparound(t *testing.T) {
	ring := new(fakeSQRing)
	sq := newFakeSQ(ring)

	// Start both sides just below the uint32 boundary so the positions wrap
	// while the ring stays consistent.
	start := ^uint32(0) - 2
	sq.SQEHead = start
	sq.SQETail = start
	ring.head = start
	ring.tail = start

	for i := 0; i < fakeEntries; i++ {
		require.NotNil(t, sq.Acquire(), "acquire %d across wraparound", i)
	}
	require.Nil(t, sq.Acquire())
	require.Equal(t, uint32(fakeEntries), sq.PublishTail())
	require.Equal(t, start+fakeEntries, ring.tail)

	ring.head = ring.tail
	sq.RefreshFromKernel()
	require.Equal(t, uint32(fakeEntries), sq.SpaceLeft())
}

func TestSubmissionQueueReclaim(t *testing.T) {
	ring := new(fakeSQRing)
	sq := newFakeSQ(ring)

	sqe := sq.Acquire()
	require.NotNil(t, sqe)
	sqe.PrepareNop()
	sqe.UserData = 7
	sq.PublishTail()

	// Still in flight: the kernel-visible head has not moved past it.
	require.False(t, sq.Reclaim(sqe))

	ring.head = ring.tail
	sq.RefreshFromKernel()
	require.True(t, sq.Reclaim(sqe))
	require.Equal(t, SQEntry{}, *sqe, "reclaimed slot must be zeroed")
	require.Equal(t, 1, sq.ReclaimedCount())

	// The same physical slot comes back pre-zeroed seven acquisitions later.
	for i := 0; i < fakeEntries; i++ {
		next := sq.Acquire()
		require.NotNil(t, next)
		if next == sqe {
			require.Equal(t, SQEntry{}, *next)
		}
	}
	require.Equal(t, 0, sq.ReclaimedCount())
}

func TestSubmissionQueueReclaimRejectsForeignPointers(t *testing.T) {
	ring := new(fakeSQRing)
	sq := newFakeSQ(ring)

	var stray SQEntry
	require.False(t, sq.Reclaim(&stray))

	// Misaligned pointer inside the array.
	sqe := sq.Acquire()
	require.NotNil(t, sqe)
	misaligned := (*SQEntry)(unsafe.Add(unsafe.Pointer(sqe), 8))
	require.False(t, sq.Reclaim(misaligned))

	sq.ClearReclaimed()
	require.Equal(t, 0, sq.ReclaimedCount())
}

func TestSubmissionQueueKernelCells(t *testing.T) {
	ring := new(fakeSQRing)
	sq := newFakeSQ(ring)

	ring.flags = uint32(SQStatusNeedWakeup)
	ring.dropped = 3

	require.True(t, sq.NeedsWakeup())
	require.Equal(t, SQStatusNeedWakeup, sq.Flags()&SQStatusNeedWakeup)
	require.Equal(t, uint32(3), sq.Dropped())
}
