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
	"unsafe"

	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
)

// setup is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/arch/syscall-defs.h#L71
func setup(entries uint32, params *Params) (int, error) {
	fd, _, errno := syscall.Syscall(
		unix.SYS_IO_URING_SETUP,
		uintptr(entries),
		uintptr(unsafe.Pointer(params)),
		0,
	)
	if errno != 0 {
		if errno == syscall.ENOSYS {
			return 0, errors.From(ErrNotAvailable, errors.WithWrap(errno))
		}
		return 0, errors.From(ErrSetup, errors.WithWrap(errno))
	}
	return int(fd), nil
}

// Enter is the sole kernel-enter contact point. It submits toSubmit entries
// and, with EnterGetEvents set, blocks until waitNR completions are
// available or a signal arrives. A non-nil sigmask is installed atomically
// for the duration of the wait. It returns the number of entries the kernel
// actually consumed, which may be less than toSubmit.
//
// Enter is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/arch/generic/syscall.h#L35
func (r *Ring) Enter(toSubmit uint32, waitNR uint32, flags EnterFlag, sigmask *unix.Sigset_t) (uint, error) {
	var (
		sig     unsafe.Pointer
		sigSize uintptr
	)
	if sigmask != nil {
		sig = unsafe.Pointer(sigmask)
		sigSize = _NSIG / 8
	}
	return r.enter2(toSubmit, waitNR, flags, sig, sigSize)
}

// enter2 is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/arch/generic/syscall.h#L24
func (r *Ring) enter2(toSubmit uint32, waitNR uint32, flags EnterFlag, sig unsafe.Pointer, sigSize uintptr) (uint, error) {
	res, _, errno := syscall.Syscall6(
		unix.SYS_IO_URING_ENTER,
		uintptr(r.fd),
		uintptr(toSubmit),
		uintptr(waitNR),
		uintptr(flags),
		uintptr(sig),
		sigSize,
	)
	if errno != 0 {
		return 0, errors.From(ErrEnter, errors.WithWrap(errno))
	}
	return uint(res), nil
}

// register is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/arch/syscall-defs.h#L64
func (r *Ring) register(opCode RegisterOpCode, arg unsafe.Pointer, nrArgs uint32) (uint, error) {
	res, _, errno := syscall.Syscall6(
		unix.SYS_IO_URING_REGISTER,
		uintptr(r.fd),
		uintptr(opCode),
		uintptr(arg),
		uintptr(nrArgs),
		0,
		0,
	)
	if errno != 0 {
		return 0, errors.From(ErrRegister, errors.WithWrap(errno))
	}
	return uint(res), nil
}
