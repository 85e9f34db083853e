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

package iouring

type Sigset_t struct {
	Val [16]uint64
}

type Region struct{}

func (r *Region) Size() uintptr { return 0 }

func (r *Region) Unmap() {}

type SubmissionQueue struct{}

type CompletionQueue struct{}

type Ring struct{}

const (
	DefaultEntries = 32
	MaxEntries     = 4096
)

func IsAvailable() bool {
	return false
}

func NewRing(uint32) (*Ring, error) {
	return nil, ErrNotAvailable
}

func NewRingWithFlags(uint32, Setup) (*Ring, error) {
	return nil, ErrNotAvailable
}

func (r *Ring) FD() int {
	return -1
}

func (r *Ring) Supports(Feature) bool {
	return false
}

func (r *Ring) GetSQEntry() *SQEntry {
	return nil
}

func (r *Ring) Submit() (uint, error) {
	return 0, ErrNotAvailable
}

func (r *Ring) SubmitAndWait(uint32) (uint, error) {
	return 0, ErrNotAvailable
}

func (r *Ring) Enter(uint32, uint32, EnterFlag, *Sigset_t) (uint, error) {
	return 0, ErrNotAvailable
}

func (r *Ring) PeekCQEvent() *CQEvent {
	return nil
}

func (r *Ring) CopyCQEvents([]CQEvent) int {
	return 0
}

func (r *Ring) CQESeen(*CQEvent) {}

func (r *Ring) CQAdvance(uint32) {}

func (r *Ring) CQOverflow() uint32 {
	return 0
}

func (r *Ring) SQSpaceLeft() uint32 {
	return 0
}

func (r *Ring) SQFull() bool {
	return true
}

func (r *Ring) CQEmpty() bool {
	return true
}

func (r *Ring) CQReady() uint32 {
	return 0
}

func (r *Ring) ReclaimSQEntry(*SQEntry) bool {
	return false
}

func (r *Ring) Close() error {
	return ErrNotAvailable
}
