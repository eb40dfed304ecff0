/*
NAME
  queue_test.go

DESCRIPTION
  Tests for the CircularByteQueue FIFO law, zero-push identity, and the
  corrected Compare wraparound offset.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ring

import (
	"bytes"
	"testing"
)

// TestFIFO checks property 3: after any interleaving of pushes and pulls with
// total pulled <= total pushed, the bytes pulled equal, in order, the bytes
// pushed.
func TestFIFO(t *testing.T) {
	q := New(16)
	var want []byte

	push := func(b []byte) {
		q.Push(b, len(b))
		want = append(want, b...)
	}
	pull := func(n int) {
		got := make([]byte, n)
		q.Pull(got, n)
		if !bytes.Equal(got, want[:n]) {
			t.Fatalf("pull(%d) = %x, want %x", n, got, want[:n])
		}
		want = want[n:]
	}

	push([]byte{1, 2, 3})
	pull(2)
	push([]byte{4, 5, 6, 7, 8})
	pull(1)
	push([]byte{9, 10})
	pull(7)
}

// TestZeroPushIdentity checks property 4: push(nil, n) is equivalent to
// pushing n zero bytes.
func TestZeroPushIdentity(t *testing.T) {
	q1, q2 := New(8), New(8)
	q1.Push(nil, 5)
	q2.Push(make([]byte, 5), 5)

	got1, got2 := make([]byte, 5), make([]byte, 5)
	q1.Pull(got1, 5)
	q2.Pull(got2, 5)
	if !bytes.Equal(got1, got2) {
		t.Fatalf("push(nil, n) = %x, want %x", got1, got2)
	}
	for _, b := range got1 {
		if b != 0 {
			t.Fatalf("push(nil, n) produced non-zero byte: %x", got1)
		}
	}
}

// TestPullDiscard checks that Pull(nil, n) discards bytes without error.
func TestPullDiscard(t *testing.T) {
	q := New(8)
	q.Push([]byte{1, 2, 3, 4}, 4)
	q.Pull(nil, 2)
	got := make([]byte, 2)
	q.Pull(got, 2)
	if !bytes.Equal(got, []byte{3, 4}) {
		t.Fatalf("got %x, want [3 4]", got)
	}
}

// TestCompareWrapping pins the corrected second-phase offset (phase1, not
// phase2) in Compare when the queued bytes wrap around the end of the
// backing buffer. See DESIGN.md Open Question 2.
func TestCompareWrapping(t *testing.T) {
	q := New(8)
	// Fill then drain so that tail is positioned such that a 6-byte compare
	// wraps across the buffer boundary.
	q.Push([]byte{0, 0, 0, 0, 0, 0}, 6)
	q.Pull(nil, 6)
	// head == tail == 6. Push 6 bytes: wraps after 2 bytes (phase1=2).
	data := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	q.Push(data, 6)

	if !q.Compare(data, 6) {
		t.Fatalf("Compare did not match identical wrapped data")
	}
	mismatch := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0x00}
	if q.Compare(mismatch, 6) {
		t.Fatalf("Compare matched data differing only in the wrapped phase")
	}
}

func TestAvailableAndCap(t *testing.T) {
	q := New(10)
	if q.Cap() != 10 {
		t.Fatalf("Cap() = %d, want 10", q.Cap())
	}
	if q.Available() != 10 {
		t.Fatalf("Available() = %d, want 10", q.Available())
	}
	q.Push(nil, 4)
	if q.Available() != 6 {
		t.Fatalf("Available() = %d, want 6", q.Available())
	}
	if q.Queued() != 4 {
		t.Fatalf("Queued() = %d, want 4", q.Queued())
	}
}

func TestFreeIdempotent(t *testing.T) {
	q := New(4)
	q.Free()
	q.Free()
	if q.IsValid() {
		t.Fatalf("freed queue reports valid")
	}
}
