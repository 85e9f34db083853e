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

package buffer

import (
	"bytes"
	"crypto/rand"
	"errors"
	"os"
	"testing"
	"unsafe"
)

func TestFixedPageRounding(t *testing.T) {
	buf, err := NewFixed(1)
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}
	t.Cleanup(func() {
		if err = buf.Close(); err != nil {
			t.Fatalf("failed to close buffer: %v", err)
		}
	})

	if buf.Cap() != os.Getpagesize() {
		t.Fatalf("capacity %d is not page-rounded", buf.Cap())
	}
	if buf.Len() != 0 {
		t.Fatalf("new buffer should be empty, got %d", buf.Len())
	}
}

func TestFixedWriteAndOverflow(t *testing.T) {
	buf, err := NewFixed(int64(os.Getpagesize()))
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}
	t.Cleanup(func() {
		if err = buf.Close(); err != nil {
			t.Fatalf("failed to close buffer: %v", err)
		}
	})

	payload := make([]byte, buf.Cap())
	if _, err = rand.Read(payload); err != nil {
		t.Fatalf("failed to read random bytes: %v", err)
	}

	num, err := buf.Write(payload)
	if err != nil {
		t.Fatalf("failed to write bytes: %v", err)
	}
	if num != len(payload) {
		t.Fatalf("number of bytes written is not correct: %d", num)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Fatal("buffer contents do not match payload")
	}

	if _, err = buf.Write([]byte{0}); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	buf.Reset()
	if buf.Len() != 0 {
		t.Fatalf("reset buffer should be empty, got %d", buf.Len())
	}
}

func TestFixedIovec(t *testing.T) {
	buf, err := NewFixed(512)
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}
	t.Cleanup(func() {
		if err = buf.Close(); err != nil {
			t.Fatalf("failed to close buffer: %v", err)
		}
	})

	iovec := buf.Iovec()
	if iovec.Len != uint64(buf.Cap()) {
		t.Fatalf("iovec length %d does not cover capacity %d", iovec.Len, buf.Cap())
	}
	full := (*buf)[:cap(*buf)]
	if unsafe.Pointer(iovec.Base) != unsafe.Pointer(&full[0]) {
		t.Fatal("iovec base does not point at the buffer")
	}

	// The address must survive writes: fixed buffers are never reallocated.
	if _, err = buf.Write([]byte("stable")); err != nil {
		t.Fatalf("failed to write bytes: %v", err)
	}
	if unsafe.Pointer(buf.Iovec().Base) != unsafe.Pointer(&full[0]) {
		t.Fatal("fixed buffer address moved after write")
	}
}

func TestSharedFixedPoolPageSized(t *testing.T) {
	buf, err := GetFixed()
	if err != nil {
		t.Fatalf("failed to get buffer from shared pool: %v", err)
	}
	if buf.Cap() != os.Getpagesize() {
		t.Fatalf("shared pool buffer is not page-sized: %d", buf.Cap())
	}
	if buf.Len() != 0 {
		t.Fatalf("shared pool buffer is not empty: %d", buf.Len())
	}
	PutFixed(buf)
}

func TestFixedPool(t *testing.T) {
	pool := NewFixedPool(512)

	buf, err := pool.Get()
	if err != nil {
		t.Fatalf("failed to get buffer from pool: %v", err)
	}
	if _, err = buf.Write([]byte("pooled")); err != nil {
		t.Fatalf("failed to write bytes: %v", err)
	}
	pool.Put(buf)

	again, err := pool.Get()
	if err != nil {
		t.Fatalf("failed to get buffer from pool: %v", err)
	}
	if again.Len() != 0 {
		t.Fatalf("pooled buffer was not reset, len %d", again.Len())
	}
	if err = again.Close(); err != nil {
		t.Fatalf("failed to close buffer: %v", err)
	}
}
