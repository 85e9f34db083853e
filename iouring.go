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

// Package iouring provides user-space access to the Linux io_uring
// asynchronous I/O interface: submission and completion entries flow
// through two ring buffers shared with the kernel via memory mapping, and
// syscalls are only needed to wake the kernel and register long-lived
// resources.
package iouring

import (
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	_available = false
)

func init() {
	// A register call on fd 0 fails with something other than ENOSYS on any
	// kernel that has the syscall at all.
	_, _, errno := syscall.RawSyscall(unix.SYS_IO_URING_REGISTER, 0, 1, 0)
	_available = errno != syscall.ENOSYS
}

// IsAvailable reports whether the running kernel exposes io_uring.
func IsAvailable() bool {
	return _available
}
