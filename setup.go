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

	"github.com/brickingsoft/errors"
)

// mapRings derives the three ring mappings from the geometry the kernel
// returned and constructs both queue halves over them. The queues only
// borrow pointers into the regions, so the regions are owned by the Ring
// and must outlive the queues.
//
// The mapping sizes follow liburing: https://github.com/axboe/liburing/blob/liburing-2.4/src/setup.c#L18
func (r *Ring) mapRings(params *Params) error {
	sqRingSize := uintptr(params.SQOffsets.Array) + uintptr(params.SQEntries)*uint32Size
	cqRingSize := uintptr(params.CQOffsets.CQEs) + uintptr(params.CQEntries)*cqEventSize

	// With FeatureSingleMMap both ring offsets alias the same pages; the
	// kernel requires the mapping to cover the larger of the two either way.
	if params.Features&uint32(FeatureSingleMMap) != 0 {
		if cqRingSize > sqRingSize {
			sqRingSize = cqRingSize
		}
		cqRingSize = sqRingSize
	}

	sqRegion, err := mapRegion(r.fd, SQRingOffset, sqRingSize)
	if err != nil {
		return err
	}

	cqRegion, err := mapRegion(r.fd, CQRingOffset, cqRingSize)
	if err != nil {
		sqRegion.Unmap()
		return err
	}

	sqeRegion, err := mapRegion(r.fd, SQEntriesOffset, uintptr(params.SQEntries)*sqEntrySize)
	if err != nil {
		cqRegion.Unmap()
		sqRegion.Unmap()
		return err
	}

	unmapAll := func() {
		sqeRegion.Unmap()
		cqRegion.Unmap()
		sqRegion.Unmap()
	}

	// The mask and capacity cells inside the mappings are authoritative;
	// validate them once here so the queues can trust plain copies.
	sqMask := *sqRegion.Uint32(uintptr(params.SQOffsets.RingMask))
	sqEntries := *sqRegion.Uint32(uintptr(params.SQOffsets.RingEntries))
	if err = validateGeometry(sqMask, sqEntries); err != nil {
		unmapAll()
		return err
	}

	cqMask := *cqRegion.Uint32(uintptr(params.CQOffsets.RingMask))
	cqEntries := *cqRegion.Uint32(uintptr(params.CQOffsets.RingEntries))
	if err = validateGeometry(cqMask, cqEntries); err != nil {
		unmapAll()
		return err
	}

	r.sqRegion = sqRegion
	r.cqRegion = cqRegion
	r.sqeRegion = sqeRegion
	r.SQ = newSubmissionQueue(sqRegion, &params.SQOffsets, sqeRegion, sqMask, sqEntries)
	r.CQ = newCompletionQueue(cqRegion, &params.CQOffsets, cqMask, cqEntries)
	return nil
}

func validateGeometry(mask uint32, entries uint32) error {
	if entries == 0 || entries&(entries-1) != 0 || mask != entries-1 {
		return errors.From(
			ErrGeometry,
			errors.WithMeta("entries", strconv.FormatUint(uint64(entries), 10)),
			errors.WithMeta("mask", strconv.FormatUint(uint64(mask), 16)),
		)
	}
	return nil
}

func (r *Ring) unmapRings() {
	if r.sqeRegion != nil {
		r.sqeRegion.Unmap()
	}
	if r.cqRegion != nil {
		r.cqRegion.Unmap()
	}
	if r.sqRegion != nil {
		r.sqRegion.Unmap()
	}
}
