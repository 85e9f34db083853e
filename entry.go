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
	"unsafe"
)

// The Prepare helpers are pure field encoders: they map operation
// parameters onto the fixed SQE layout and perform no I/O. Addresses are
// passed as uintptr; keeping the referenced memory alive until the matching
// completion arrives is the caller's responsibility.

// PrepareRW is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L378
func (e *SQEntry) PrepareRW(opCode OpCode, fd int, addressPointer uintptr, length uint32, offset uint64) {
	e.OpCode = uint8(opCode)
	e.Flags = 0
	e.IOPriority = 0
	e.FD = int32(fd)
	e.UnionOffset = offset
	e.UnionAddress = uint64(addressPointer)
	e.Length = length
	e.UnionRWFlags = 0
	e.UnionBufferIndexPacked = 0
	e.Personality = 0
	e.UnionSplicedFDIn = 0
	e.UnionAddress3.Address3 = 0
	e.UnionAddress3._Pad2[0] = 0
}

// PrepareNop is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L666
func (e *SQEntry) PrepareNop() {
	e.PrepareRW(OpCodeNOP, -1, 0, 0, 0)
}

// PrepareRead is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L564
func (e *SQEntry) PrepareRead(fd int, bufferPointer uintptr, length uint32, offset uint64) {
	e.PrepareRW(OpCodeRead, fd, bufferPointer, length, offset)
}

// PrepareWrite is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L570
func (e *SQEntry) PrepareWrite(fd int, bufferPointer uintptr, length uint32, offset uint64) {
	e.PrepareRW(OpCodeWrite, fd, bufferPointer, length, offset)
}

// PrepareReadV is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L402
func (e *SQEntry) PrepareReadV(fd int, iovecsPointer uintptr, nrVecs uint32, offset uint64) {
	e.PrepareRW(OpCodeReadV, fd, iovecsPointer, nrVecs, offset)
}

// PrepareWriteV is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L428
func (e *SQEntry) PrepareWriteV(fd int, iovecsPointer uintptr, nrVecs uint32, offset uint64) {
	e.PrepareRW(OpCodeWriteV, fd, iovecsPointer, nrVecs, offset)
}

// PrepareReadFixed is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L418
func (e *SQEntry) PrepareReadFixed(fd int, bufferPointer uintptr, length uint32, offset uint64, bufferIndex uint16) {
	e.PrepareRW(OpCodeReadFixed, fd, bufferPointer, length, offset)
	e.UnionBufferIndexPacked = bufferIndex
}

// PrepareWriteFixed is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L444
func (e *SQEntry) PrepareWriteFixed(fd int, bufferPointer uintptr, length uint32, offset uint64, bufferIndex uint16) {
	e.PrepareRW(OpCodeWriteFixed, fd, bufferPointer, length, offset)
	e.UnionBufferIndexPacked = bufferIndex
}

// PrepareAccept is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L591
func (e *SQEntry) PrepareAccept(fd int, addressPointer uintptr, addressLengthPointer uintptr, flags uint32) {
	e.PrepareRW(OpCodeAccept, fd, addressPointer, 0, uint64(addressLengthPointer))
	e.UnionRWFlags = flags
}

// PrepareConnect is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L663
func (e *SQEntry) PrepareConnect(fd int, addressPointer uintptr, addressLength uint64) {
	e.PrepareRW(OpCodeConnect, fd, addressPointer, 0, addressLength)
}

// PrepareSend is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L937
func (e *SQEntry) PrepareSend(fd int, bufferPointer uintptr, length uint32, msgFlags uint32) {
	e.PrepareRW(OpCodeSend, fd, bufferPointer, length, 0)
	e.UnionRWFlags = msgFlags
}

// PrepareRecv is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L988
func (e *SQEntry) PrepareRecv(fd int, bufferPointer uintptr, length uint32, msgFlags uint32) {
	e.PrepareRW(OpCodeRecv, fd, bufferPointer, length, 0)
	e.UnionRWFlags = msgFlags
}

// PrepareClose is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L552
func (e *SQEntry) PrepareClose(fd int) {
	e.PrepareRW(OpCodeClose, fd, 0, 0, 0)
}

// PrepareShutdown is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L610
func (e *SQEntry) PrepareShutdown(fd int, how int) {
	e.PrepareRW(OpCodeShutdown, fd, 0, uint32(how), 0)
}

// PrepareTimeout is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L577
//
// ts must stay alive until the timeout completes or is removed.
func (e *SQEntry) PrepareTimeout(ts *Timespec, count uint32, flags uint32) {
	e.PrepareRW(OpCodeTimeout, -1, uintptr(unsafe.Pointer(ts)), 1, uint64(count))
	e.UnionRWFlags = flags
}

// PrepareCancel is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing.h#L685
//
// Cancellation is a request, never a guarantee: the target may complete
// normally first, and the cancel operation gets its own completion either
// way.
func (e *SQEntry) PrepareCancel(userData uint64, flags uint32) {
	e.PrepareRW(OpCodeAsyncCancel, -1, 0, 0, 0)
	e.UnionAddress = userData
	e.UnionRWFlags = flags
}
