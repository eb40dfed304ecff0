/*
NAME
  sampleconv_test.go

DESCRIPTION
  Tests for sample-width conversion: round-trip (widen then narrow, narrow
  then widen), and the worked scenarios S3/S4 from spec.md.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sampleconv

import (
	"bytes"
	"testing"
)

// TestS3Widen pins spec.md S3: Int16 [0x11 0x22] -> Int24 [0x11 0x22 0x00].
func TestS3Widen(t *testing.T) {
	src := []byte{0x11, 0x22}
	dst := make([]byte, OutLen(Int24, 1, 1))
	n, err := Convert(dst, src, Int16, Int24, 1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := []byte{0x11, 0x22, 0x00}
	if !bytes.Equal(dst[:n], want) {
		t.Errorf("got % x, want % x", dst[:n], want)
	}
}

// TestS4Narrow pins spec.md S4: Int32 [0x11 0x22 0x33 0x44] -> Int16
// [0x11 0x22].
func TestS4Narrow(t *testing.T) {
	src := []byte{0x11, 0x22, 0x33, 0x44}
	dst := make([]byte, OutLen(Int16, 1, 1))
	n, err := Convert(dst, src, Int32, Int16, 1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := []byte{0x11, 0x22}
	if !bytes.Equal(dst[:n], want) {
		t.Errorf("got % x, want % x", dst[:n], want)
	}
}

// TestRoundTripWidenNarrow checks property 5: widening then narrowing with
// the same pair of widths reproduces the original sample bytes.
func TestRoundTripWidenNarrow(t *testing.T) {
	orig := []byte{0x01, 0x02, 0xAA, 0xBB}
	wide := make([]byte, OutLen(Int24, 2, 1))
	if _, err := Convert(wide, orig, Int16, Int24, 2); err != nil {
		t.Fatal(err)
	}
	back := make([]byte, OutLen(Int16, 2, 1))
	if _, err := Convert(back, wide, Int24, Int16, 2); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, orig) {
		t.Errorf("round trip = % x, want % x", back, orig)
	}
}

// TestNarrowWidenIsProjection checks property 5's second half: narrowing
// then widening preserves the high (retained) bytes, zero-filling the rest.
func TestNarrowWidenIsProjection(t *testing.T) {
	orig := []byte{0x11, 0x22, 0x33, 0x44}
	narrow := make([]byte, OutLen(Int16, 1, 1))
	if _, err := Convert(narrow, orig, Int32, Int16, 1); err != nil {
		t.Fatal(err)
	}
	wide := make([]byte, OutLen(Int32, 1, 1))
	if _, err := Convert(wide, narrow, Int16, Int32, 1); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x11, 0x22, 0x00, 0x00}
	if !bytes.Equal(wide, want) {
		t.Errorf("got % x, want % x", wide, want)
	}
}

func TestMultiChannel(t *testing.T) {
	// Two frames of stereo Int16 widened to Int24.
	src := []byte{
		0x01, 0x02, 0x03, 0x04, // frame 0: ch0, ch1
		0x05, 0x06, 0x07, 0x08, // frame 1: ch0, ch1
	}
	dst := make([]byte, OutLen(Int24, 2, 2))
	n, err := Convert(dst, src, Int16, Int24, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x01, 0x02, 0x00, 0x03, 0x04, 0x00,
		0x05, 0x06, 0x00, 0x07, 0x08, 0x00,
	}
	if !bytes.Equal(dst[:n], want) {
		t.Errorf("got % x, want % x", dst[:n], want)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := Convert(make([]byte, 8), make([]byte, 8), Format(99), Int16, 1)
	if err != ErrUnsupportedFormat {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDstTooSmall(t *testing.T) {
	_, err := Convert(make([]byte, 1), []byte{0x11, 0x22}, Int16, Int24, 1)
	if err == nil {
		t.Errorf("expected error for undersized dst")
	}
}
