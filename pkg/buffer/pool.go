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

package buffer

import (
	"os"
	"sync"
)

// Package-level pools for callers that churn through short-lived buffers.
// Pooled fixed buffers are a single page each, so any of them is suitable
// for ring registration.
var (
	bufferPool = NewPool(512)
	fixedPool  = NewFixedPool(int64(os.Getpagesize()))
)

// Pool recycles resizable Buffers. A buffer keeps whatever capacity it grew
// to while pooled; size only bounds fresh allocations.
type Pool struct {
	size int64
	pool sync.Pool
}

func NewPool(size int64) *Pool {
	return &Pool{size: size}
}

func (p *Pool) Get() (*Buffer, error) {
	if b, ok := p.pool.Get().(*Buffer); ok {
		return b, nil
	}
	return New(p.size)
}

// Put resets the buffer and hands it back for reuse. The caller must not
// touch the buffer afterwards; its mapping may be handed to another Get.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

// FixedPool recycles Fixed buffers. All buffers from one pool share a size,
// so pooling never changes which registration slots a buffer fits.
type FixedPool struct {
	size int64
	pool sync.Pool
}

func NewFixedPool(size int64) *FixedPool {
	return &FixedPool{size: size}
}

func (p *FixedPool) Get() (*Fixed, error) {
	if b, ok := p.pool.Get().(*Fixed); ok {
		return b, nil
	}
	return NewFixed(p.size)
}

func (p *FixedPool) Put(b *Fixed) {
	if b == nil {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

func GetBuffer() (*Buffer, error) {
	return bufferPool.Get()
}

func PutBuffer(b *Buffer) {
	bufferPool.Put(b)
}

func GetFixed() (*Fixed, error) {
	return fixedPool.Get()
}

func PutFixed(b *Fixed) {
	fixedPool.Put(b)
}
