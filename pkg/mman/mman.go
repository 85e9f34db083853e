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

// Package mman wraps the raw memory-mapping syscalls. Unlike unix.Mmap it
// hands back plain addresses, which is what ring setup needs: the kernel
// dictates the layout inside the mapping and we derive typed pointers from
// offsets ourselves.
package mman

import (
	"syscall"
)

func MMap(address uintptr, length uintptr, prot int, flags int, fd int, offset int64) (uintptr, error) {
	addr, _, errno := syscall.Syscall6(
		syscall.SYS_MMAP,
		address,
		length,
		uintptr(prot),
		uintptr(flags),
		uintptr(fd),
		uintptr(offset),
	)
	if errno != 0 {
		return 0, errno
	}
	return addr, nil
}

func MUnmap(address uintptr, length uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_MUNMAP, address, length, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// MAdvise is exposed for callers that want to hint access patterns on
// mapped buffers; the ring mappings themselves don't need it.
func MAdvise(address uintptr, length uintptr, advice int) error {
	_, _, errno := syscall.Syscall(syscall.SYS_MADVISE, address, length, uintptr(advice))
	if errno != 0 {
		return errno
	}
	return nil
}
