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
	"strconv"
	"syscall"
	"unsafe"

	"github.com/brickingsoft/errors"

	"github.com/davidabram/io-urine/pkg/mman"
)

// Region owns one shared memory mapping of the ring file descriptor.
// Modifications are visible to and from the kernel. Pointers handed out by
// Pointer and Uint32 borrow the mapping and must not outlive it; bounds
// checking is the caller's responsibility.
type Region struct {
	address uintptr
	size    uintptr
}

func mapRegion(fd int, offset uint64, size uintptr) (*Region, error) {
	address, err := mman.MMap(
		0,
		size,
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_SHARED|syscall.MAP_POPULATE,
		fd,
		int64(offset),
	)
	if err != nil {
		return nil, errors.From(
			ErrMmap,
			errors.WithWrap(err),
			errors.WithMeta("offset", strconv.FormatUint(offset, 16)),
		)
	}
	return &Region{address: address, size: size}, nil
}

// Pointer returns the address of the given byte offset into the mapping.
func (r *Region) Pointer(offset uintptr) unsafe.Pointer {
	return unsafe.Pointer(r.address + offset)
}

// Uint32 returns the uint32 cell at the given byte offset into the mapping.
func (r *Region) Uint32(offset uintptr) *uint32 {
	return (*uint32)(unsafe.Pointer(r.address + offset))
}

// Bytes returns a slice over [offset, offset+length) of the mapping.
func (r *Region) Bytes(offset uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(r.address+offset)), length)
}

func (r *Region) Size() uintptr {
	return r.size
}

// Unmap releases the mapping. Failures are swallowed deliberately: the
// mapping is gone either way and there is nothing actionable during
// teardown.
func (r *Region) Unmap() {
	if r.address != 0 {
		_ = mman.MUnmap(r.address, r.size)
		r.address = 0
	}
}
