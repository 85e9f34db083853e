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

// The structures in this file are shared with the kernel. Field offsets,
// order and signedness must match the io_uring ABI exactly.

// SQRingOffsets is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L400
type SQRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	ResV1       uint32
	ResV2       uint64
}

// CQRingOffsets is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L419
type CQRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	CQEs        uint32
	Flags       uint32
	ResV1       uint32
	ResV2       uint64
}

// Params is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L450
type Params struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFD         uint32
	ResV         [3]uint32
	SQOffsets    SQRingOffsets
	CQOffsets    CQRingOffsets
}

// CQEvent is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L357
//
// Res carries the operation outcome: negative values are negated error
// codes, non-negative values are success / byte counts. The ring never
// interprets it; callers do.
type CQEvent struct {
	UserData uint64
	Res      int32
	Flags    uint32

	// BigCQE is only required when the ring is initialized with IORING_SETUP_CQE32.
	// Since we don't support IORING_SETUP_CQE32, we don't need to define BigCQE.
	//BigCQE   []uint64
}

// UnionAddress3 is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L88
type UnionAddress3 struct {
	Address3 uint64
	_Pad2    [1]uint64
}

// SQEntry is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L30
type SQEntry struct {
	OpCode                 uint8
	Flags                  uint8
	IOPriority             uint16
	FD                     int32
	UnionOffset            uint64
	UnionAddress           uint64
	Length                 uint32
	UnionRWFlags           uint32
	UserData               uint64
	UnionBufferIndexPacked uint16
	Personality            uint16
	UnionSplicedFDIn       int32
	UnionAddress3          UnionAddress3
}

// Timespec is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/compat.h#L9
type Timespec struct {
	Sec  int64
	Nsec int64
}

// FilesUpdate is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L520
type FilesUpdate struct {
	Offset uint32
	ResV   uint32
	FDs    uint64
}

// ProbeOp is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L655
type ProbeOp struct {
	Op    uint8
	ResV  uint8
	Flags uint16
	ResV2 uint32
}

// ProbeOpsCount is the number of opcode slots requested from the kernel when
// probing. It must be large enough to cover every opcode the kernel could
// report.
const ProbeOpsCount = 128

// Probe is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L662
type Probe struct {
	LastOp uint8
	OpsLen uint8
	ResV   uint16
	ResV2  [3]uint32
	Ops    [ProbeOpsCount]ProbeOp
}

// OpCodeSupported reports whether the kernel that produced this probe
// supports the given opcode.
func (p *Probe) OpCodeSupported(op OpCode) bool {
	n := int(p.OpsLen)
	if n > len(p.Ops) {
		n = len(p.Ops)
	}
	for i := 0; i < n; i++ {
		if p.Ops[i].Op == uint8(op) {
			return p.Ops[i].Flags&uint16(ProbeOpSupported) != 0
		}
	}
	return false
}

// ProbeOpFlag is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L651
type ProbeOpFlag uint16

const (
	ProbeOpSupported ProbeOpFlag = 1 << 0
)

// OpCode is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L176
type OpCode uint8

const (
	OpCodeNOP OpCode = iota
	OpCodeReadV
	OpCodeWriteV
	OpCodeFsync
	OpCodeReadFixed
	OpCodeWriteFixed
	OpCodePollAdd
	OpCodePollRemove
	OpCodeSyncFileRange
	OpCodeSendMsg
	OpCodeRecvMsg
	OpCodeTimeout
	OpCodeTimeoutRemove
	OpCodeAccept
	OpCodeAsyncCancel
	OpCodeLinkTimeout
	OpCodeConnect
	OpCodeFallocate
	OpCodeOpenat
	OpCodeClose
	OpCodeFilesUpdate
	OpCodeStatx
	OpCodeRead
	OpCodeWrite
	OpCodeFadvise
	OpCodeMadvise
	OpCodeSend
	OpCodeRecv
	OpCodeOpenat2
	OpCodeEpollCtl
	OpCodeSplice
	OpCodeProvideBuffers
	OpCodeRemoveBuffers
	OpCodeTee
	OpCodeShutdown
	OpCodeRenameat
	OpCodeUnlinkat
	OpCodeMkdirat
	OpCodeSymlinkat
	OpCodeLinkat
	OpCodeMsgRing
	OpCodeFsetxattr
	OpCodeSetxattr
	OpCodeFgetxattr
	OpCodeGetxattr
	OpCodeSocket
	OpCodeUringCmd
	OpCodeSendZC
	OpCodeSendMsgZC

	OpCodeLast
)

// Setup is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L140
type Setup uint32

const (
	SetupIOPoll Setup = 1 << iota
	SetupSQPoll
	SetupSQAff
	SetupCQSize
	SetupClamp
	SetupAttachWQ
	SetupRDisabled
	SetupSubmitAll
	SetupCoopTaskRun
	SetupTaskRunFlag
	SetupSQE128
	SetupCQE32
	SetupSingleIssuer
	SetupDeferTaskRun
	SetupNoMMap
	SetupRegisteredFDOnly
)

// SQStatus is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L415
type SQStatus uint32

const (
	SQStatusNeedWakeup SQStatus = 1 << iota
	SQStatusCQOverflow
	SQStatusTaskRun
)

// EnterFlag is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L441
type EnterFlag uint32

const (
	EnterGetEvents EnterFlag = 1 << iota
	EnterSQWakeup
	EnterSQWait
	EnterExtArg
	EnterRegisteredRing
)

// Feature is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L466
type Feature uint32

const (
	FeatureSingleMMap Feature = 1 << iota
	FeatureNoDrop
	FeatureSubmitStable
	FeatureRWCurPos
	FeatureCurPersonality
	FeatureFastPoll
	FeaturePoll32Bits
	FeatureSQPollNonfixed
	FeatureExtArg
	FeatureNativeWorkers
	FeatureRcrcTags
	FeatureCQESkip
	FeatureLinkedFile
	FeatureRegRegRing
)

// SQEFlag is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L98
type SQEFlag uint8

const (
	SQEFlagFixedFile SQEFlag = 1 << iota
	SQEFlagIODrain
	SQEFlagIOLink
	SQEFlagIOHardlink
	SQEFlagAsync
	SQEFlagBufferSelect
	SQEFlagCQESkipSuccess
)

// CQEFlag is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L372
type CQEFlag uint32

const (
	CQEFlagBuffer CQEFlag = 1 << iota
	CQEFlagMore
	CQEFlagSockNonempty
	CQEFlagTimeout
	CQEFlagNotification
)

// RegisterOpCode is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L491
type RegisterOpCode uint32

const (
	RegisterOpCodeRegisterBuffers RegisterOpCode = iota
	RegisterOpCodeUnregisterBuffers
	RegisterOpCodeRegisterFiles
	RegisterOpCodeUnregisterFiles
	RegisterOpCodeRegisterEventFD
	RegisterOpCodeUnregisterEventFD
	RegisterOpCodeRegisterFilesUpdate
	RegisterOpCodeRegisterEventFDAsync
	RegisterOpCodeRegisterProbe
	RegisterOpCodeRegisterPersonality
	RegisterOpCodeUnregisterPersonality
	RegisterOpCodeRegisterRestrictions
	RegisterOpCodeRegisterEnableRings

	// RegisterOpCodeRegisterUseRegisteredRing is defined here: https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L560
	RegisterOpCodeRegisterUseRegisteredRing RegisterOpCode = 1 << 31
)

// Memory-map offsets into the ring file descriptor, defined here:
// https://github.com/axboe/liburing/blob/liburing-2.4/src/include/liburing/io_uring.h#L384
const (
	SQRingOffset    uint64 = 0
	CQRingOffset    uint64 = 0x8000000
	SQEntriesOffset uint64 = 0x10000000
)

const (
	// _NSIG is defined here: https://github.com/torvalds/linux/blob/v6.5/include/uapi/asm-generic/signal.h#L7
	_NSIG = 64
)
