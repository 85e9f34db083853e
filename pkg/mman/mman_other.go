//go:build !linux

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

package mman

import (
	"errors"
)

var ErrNotAvailable = errors.New("mman is not available on this platform")

func MMap(uintptr, uintptr, int, int, int, int64) (uintptr, error) {
	return 0, ErrNotAvailable
}

func MUnmap(uintptr, uintptr) error {
	return ErrNotAvailable
}

func MAdvise(uintptr, uintptr, int) error {
	return ErrNotAvailable
}
