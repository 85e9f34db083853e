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

// fakeCQRing mirrors the kernel's completion-ring layout; the test plays
// the kernel by appending entries and bumping the tail cell.
type fakeCQRing struct {
	head     uint32
	tail     uint32
	mask     uint32
	entries  uint32
	overflow uint32
	flags    uint32
	cqes     [fakeEntries]CQEvent
}

func newFakeCQ(ring *fakeCQRing) CompletionQueue {
	pin(ring)
	ring.mask = fakeEntries - 1
	ring.entries = fakeEntries

	ringRegion := &Region{
		address: uintptr(unsafe.Pointer(ring)),
		size:    unsafe.Sizeof(*ring),
	}
	offsets := &CQRingOffsets{
		Head:        uint32(unsafe.Offsetof(ring.head)),
		Tail:        uint32(unsafe.Offsetof(ring.tail)),
		RingMask:    uint32(unsafe.Offsetof(ring.mask)),
		RingEntries: uint32(unsafe.Offsetof(ring.entries)),
		Overflow:    uint32(unsafe.Offsetof(ring.overflow)),
		CQEs:        uint32(unsafe.Offsetof(ring.cqes)),
		Flags:       uint32(unsafe.Offsetof(ring.flags)),
	}
	return newCompletionQueue(ringRegion, offsets, ring.mask, ring.entries)
}

// produce appends a completion the way the kernel would: entry first, tail
// store after.
func (ring *fakeCQRing) produce(tag uint64, res int32) {
	ring.cqes[ring.tail&ring.mask] = CQEvent{UserData: tag, Res: res}
	ring.tail++
}

func TestCompletionQueueEmpty(t *testing.T) {
	ring := new(fakeCQRing)
	cq := newFakeCQ(ring)

	cq.RefreshTail()
	require.True(t, cq.IsEmpty())
	require.Nil(t, cq.Peek())
	require.Equal(t, uint32(0), cq.Available())
}

func TestCompletionQueuePeekAdvancePublish(t *testing.T) {
	ring := new(fakeCQRing)
	cq := newFakeCQ(ring)

	ring.produce(100, 0)
	ring.produce(101, 11)
	ring.produce(102, -4)

	cq.RefreshTail()
	require.Equal(t, uint32(3), cq.Available())

	cqe := cq.Peek()
	require.NotNil(t, cqe)
	require.Equal(t, uint64(100), cqe.UserData)
	require.Equal(t, int32(0), cqe.Res)

	// Peek does not consume.
	require.Same(t, cqe, cq.Peek())

	cq.Advance(3)
	require.Equal(t, uint32(0), cq.Available())
	require.Nil(t, cq.Peek())

	// Advance alone does not return capacity to the kernel.
	require.Equal(t, uint32(0), ring.head)
	cq.PublishHead()
	require.Equal(t, uint32(3), ring.head)
}

func TestCompletionQueueCopyInto(t *testing.T) {
	ring := new(fakeCQRing)
	cq := newFakeCQ(ring)

	for i := 0; i < 5; i++ {
		ring.produce(uint64(200+i), int32(i))
	}
	cq.RefreshTail()

	dst := make([]CQEvent, 3)
	require.Equal(t, 3, cq.CopyInto(dst))
	for i, cqe := range dst {
		require.Equal(t, uint64(200+i), cqe.UserData)
	}

	// Copy does not consume; a larger destination sees all five.
	all := make([]CQEvent, fakeEntries)
	require.Equal(t, 5, cq.CopyInto(all))
	require.Equal(t, uint64(204), all[4].UserData)
}

func TestCompletionQueueCopyIntoWraparound(t *testing.T) {
	ring := new(fakeCQRing)
	cq := newFakeCQ(ring)

	// Consume six entries first so the next batch straddles the ring end.
	for i := 0; i < 6; i++ {
		ring.produce(0, 0)
	}
	cq.RefreshTail()
	cq.Advance(6)
	cq.PublishHead()

	for i := 0; i < 4; i++ {
		ring.produce(uint64(300+i), 0)
	}
	cq.RefreshTail()
	require.Equal(t, uint32(4), cq.Available())

	dst := make([]CQEvent, 4)
	require.Equal(t, 4, cq.CopyInto(dst))
	for i, cqe := range dst {
		require.Equal(t, uint64(300+i), cqe.UserData, "entry %d out of order across wraparound", i)
	}
}

func TestCompletionQueueOverflowCounter(t *testing.T) {
	ring := new(fakeCQRing)
	cq := newFakeCQ(ring)

	require.Equal(t, uint32(0), cq.Overflow())

	ring.overflow = 5
	require.Equal(t, uint32(5), cq.Overflow())
}
