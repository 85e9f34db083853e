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
	"github.com/brickingsoft/errors"
)

// Initialization and runtime error categories. Setup-time failures
// (ErrSetup, ErrMmap, ErrGeometry, ErrRegister, ErrInvalidArgument) and
// enter-time failures (ErrEnter) are terminal for the triggering call; the
// ring never retries a kernel interaction internally. The underlying errno
// is attached via wrapping and can be recovered with errors.As.
var (
	ErrNotAvailable    = errors.Define("iouring: io_uring is not available")
	ErrSetup           = errors.Define("iouring: setup syscall failed")
	ErrMmap            = errors.Define("iouring: ring mmap failed")
	ErrGeometry        = errors.Define("iouring: inconsistent ring geometry")
	ErrRegister        = errors.Define("iouring: register syscall failed")
	ErrEnter           = errors.Define("iouring: enter syscall failed")
	ErrInvalidArgument = errors.Define("iouring: invalid argument")
)

// IsNotAvailable reports whether err means io_uring is unsupported on the
// running kernel or platform.
func IsNotAvailable(err error) bool {
	return errors.Is(err, ErrNotAvailable)
}
