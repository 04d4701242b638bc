// ABOUTME: Tests for the binary packet encoders
// ABOUTME: Verifies fixed lengths, field placement and byte-exact layout
package protocol

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/wledfeed/wledfeed-go/pkg/dsp"
)

func testFeatures() dsp.Features {
	f := dsp.Features{
		RawLevel:      0.25,
		SmoothedLevel: 0.125,
		PeakLevel:     200,
		DominantFreq:  4306.5,
		MagnitudeSum:  12345.5,
	}
	for i := range f.Bands {
		f.Bands[i] = uint8(i * 16)
	}
	return f
}

func TestNewEncoderVariants(t *testing.T) {
	for _, v := range []Variant{VariantV1, VariantV2} {
		enc, err := NewEncoder(v)
		if err != nil {
			t.Fatalf("variant %q rejected: %v", v, err)
		}
		if enc.Variant() != v {
			t.Errorf("encoder reports variant %q, want %q", enc.Variant(), v)
		}
	}

	if _, err := NewEncoder("v3"); err == nil {
		t.Error("expected error for unrecognized variant")
	}
	if _, err := NewEncoder(""); err == nil {
		t.Error("expected error for empty variant")
	}
}

func TestPacketLengthConstant(t *testing.T) {
	cases := []struct {
		variant Variant
		size    int
	}{
		{VariantV1, PacketSizeV1},
		{VariantV2, PacketSizeV2},
	}

	for _, tc := range cases {
		enc, err := NewEncoder(tc.variant)
		if err != nil {
			t.Fatalf("failed to create encoder: %v", err)
		}
		if enc.PacketSize() != tc.size {
			t.Errorf("%s: PacketSize %d, want %d", tc.variant, enc.PacketSize(), tc.size)
		}

		// Length must not depend on feature values.
		for _, feat := range []dsp.Features{{}, testFeatures(), {RawLevel: 1e9, DominantFreq: 1e9, MagnitudeSum: 1e9}} {
			if got := len(enc.Encode(feat)); got != tc.size {
				t.Errorf("%s: packet length %d, want %d", tc.variant, got, tc.size)
			}
		}
	}
}

func TestEncodeV2Layout(t *testing.T) {
	enc, err := NewEncoder(VariantV2)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}

	feat := testFeatures()
	pkt := enc.Encode(feat)

	// Hand-packed reference of the 44-byte sync record.
	want := make([]byte, 44)
	copy(want[0:6], []byte{'0', '0', '0', '0', '2', 0})
	binary.LittleEndian.PutUint32(want[8:12], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(want[12:16], math.Float32bits(0.125))
	want[16] = 200
	for i := 0; i < 16; i++ {
		want[18+i] = uint8(i * 16)
	}
	binary.LittleEndian.PutUint32(want[36:40], math.Float32bits(12345.5))
	binary.LittleEndian.PutUint32(want[40:44], math.Float32bits(4306.5))

	if !bytes.Equal(pkt, want) {
		t.Errorf("V2 packet mismatch:\n got %x\nwant %x", pkt, want)
	}
}

func TestEncodeV1Layout(t *testing.T) {
	enc, err := NewEncoder(VariantV1)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}

	feat := testFeatures()
	pkt := enc.Encode(feat)

	if !bytes.Equal(pkt[0:6], []byte{'0', '0', '0', '0', '1', 0}) {
		t.Errorf("V1 header %x", pkt[0:6])
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(pkt[6:10])); got != 0.25 {
		t.Errorf("raw level %v, want 0.25", got)
	}
	if pkt[10] != 200 {
		t.Errorf("peak level %d, want 200", pkt[10])
	}
	for i := 0; i < 16; i++ {
		if pkt[12+i] != uint8(i*16) {
			t.Errorf("band %d: %d, want %d", i, pkt[12+i], i*16)
		}
	}
	if got := binary.LittleEndian.Uint16(pkt[28:30]); got != 4307 {
		t.Errorf("dominant frequency %d, want 4307 (rounded Hz)", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(pkt[30:34])); got != 12345.5 {
		t.Errorf("magnitude sum %v, want 12345.5", got)
	}
	if pkt[11] != 0 || pkt[34] != 0 || pkt[35] != 0 {
		t.Error("reserved bytes must stay zero")
	}
}

func TestEncodeV1FrequencyClamp(t *testing.T) {
	enc, err := NewEncoder(VariantV1)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}

	high := enc.Encode(dsp.Features{DominantFreq: 1e9})
	if got := binary.LittleEndian.Uint16(high[28:30]); got != math.MaxUint16 {
		t.Errorf("over-range frequency encoded as %d, want %d", got, math.MaxUint16)
	}

	neg := enc.Encode(dsp.Features{DominantFreq: -5})
	if got := binary.LittleEndian.Uint16(neg[28:30]); got != 0 {
		t.Errorf("negative frequency encoded as %d, want 0", got)
	}
}

func TestEncodeZeroFeatures(t *testing.T) {
	// A silent chunk must encode without surprises: headers set,
	// everything else zero.
	for _, v := range []Variant{VariantV1, VariantV2} {
		enc, err := NewEncoder(v)
		if err != nil {
			t.Fatalf("failed to create encoder: %v", err)
		}
		pkt := enc.Encode(dsp.Features{})
		for i, b := range pkt[6:] {
			if b != 0 {
				t.Errorf("%s: byte %d is %d, want 0 for silence", v, i+6, b)
			}
		}
	}
}
