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
	"runtime"
	"unsafe"

	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
)

// RegisterBuffers registers the given iovecs as fixed buffers, referenced
// afterwards by index from PrepareReadFixed/PrepareWriteFixed. The memory
// stays pinned until UnregisterBuffers.
//
// RegisterBuffers is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/register.c#L59
func (r *Ring) RegisterBuffers(iovecs []unix.Iovec) error {
	if len(iovecs) == 0 {
		return errors.From(ErrInvalidArgument, errors.WithMeta("reason", "no iovecs"))
	}
	_, err := r.register(RegisterOpCodeRegisterBuffers, unsafe.Pointer(&iovecs[0]), uint32(len(iovecs)))
	runtime.KeepAlive(iovecs)
	return err
}

func (r *Ring) UnregisterBuffers() error {
	_, err := r.register(RegisterOpCodeUnregisterBuffers, nil, 0)
	return err
}

// RegisterFiles registers a fixed file table; entries of -1 are sparse
// slots that can be filled later with RegisterFilesUpdate.
func (r *Ring) RegisterFiles(fds []int32) error {
	if len(fds) == 0 {
		return errors.From(ErrInvalidArgument, errors.WithMeta("reason", "no file descriptors"))
	}
	_, err := r.register(RegisterOpCodeRegisterFiles, unsafe.Pointer(&fds[0]), uint32(len(fds)))
	runtime.KeepAlive(fds)
	return err
}

func (r *Ring) UnregisterFiles() error {
	_, err := r.register(RegisterOpCodeUnregisterFiles, nil, 0)
	return err
}

// RegisterFilesUpdate replaces a contiguous run of the fixed file table
// starting at offset.
func (r *Ring) RegisterFilesUpdate(offset uint32, fds []int32) error {
	if len(fds) == 0 {
		return errors.From(ErrInvalidArgument, errors.WithMeta("reason", "no file descriptors"))
	}
	update := FilesUpdate{
		Offset: offset,
		FDs:    uint64(uintptr(unsafe.Pointer(&fds[0]))),
	}
	_, err := r.register(RegisterOpCodeRegisterFilesUpdate, unsafe.Pointer(&update), uint32(len(fds)))
	runtime.KeepAlive(fds)
	runtime.KeepAlive(&update)
	return err
}

// RegisterEventFD arranges for the given eventfd to be signalled on every
// completion.
func (r *Ring) RegisterEventFD(fd int) error {
	eventFD := int32(fd)
	_, err := r.register(RegisterOpCodeRegisterEventFD, unsafe.Pointer(&eventFD), 1)
	runtime.KeepAlive(&eventFD)
	return err
}

// RegisterEventFDAsync is RegisterEventFD restricted to completions that
// went through async punt, skipping ones completed inline.
func (r *Ring) RegisterEventFDAsync(fd int) error {
	eventFD := int32(fd)
	_, err := r.register(RegisterOpCodeRegisterEventFDAsync, unsafe.Pointer(&eventFD), 1)
	runtime.KeepAlive(&eventFD)
	return err
}

func (r *Ring) UnregisterEventFD() error {
	_, err := r.register(RegisterOpCodeUnregisterEventFD, nil, 0)
	return err
}

// RegisterProbe asks the kernel which opcodes it supports.
func (r *Ring) RegisterProbe() (*Probe, error) {
	probe := new(Probe)
	_, err := r.register(RegisterOpCodeRegisterProbe, unsafe.Pointer(probe), ProbeOpsCount)
	if err != nil {
		return nil, err
	}
	return probe, nil
}

// OpCodeSupported probes the kernel for the given opcode; it reports false
// when probing itself is unsupported.
func (r *Ring) OpCodeSupported(op OpCode) bool {
	probe, err := r.RegisterProbe()
	if err != nil {
		return false
	}
	return probe.OpCodeSupported(op)
}
