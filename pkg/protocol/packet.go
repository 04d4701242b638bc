// ABOUTME: Binary packet encoders for the audio sync wire protocol
// ABOUTME: Produces the fixed V1 unicast and V2 multicast layouts byte-exactly
package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wledfeed/wledfeed-go/pkg/dsp"
)

// Variant selects one of the two receiver wire formats.
type Variant string

const (
	// VariantV1 is the legacy per-device record used for unicast
	// dispatch.
	VariantV1 Variant = "v1"

	// VariantV2 is the multicast sync record. Its layout is fixed by
	// the receiving firmware; do not rearrange fields.
	VariantV2 Variant = "v2"
)

// Packet sizes are constant per variant. Receivers silently drop or
// misread anything with the wrong length.
const (
	PacketSizeV1 = 36
	PacketSizeV2 = 44
)

// Headers carry the protocol magic and version digit, NUL-padded to
// six bytes.
var (
	headerV1 = [6]byte{'0', '0', '0', '0', '1', 0}
	headerV2 = [6]byte{'0', '0', '0', '0', '2', 0}
)

// Encoder serializes feature records into one wire-format variant.
// Encoding is a pure function of the features; the encoder holds no
// per-packet state.
type Encoder struct {
	variant Variant
	size    int
}

// NewEncoder creates an encoder for the given variant. Unrecognized
// variants fail here, at construction, not per packet.
func NewEncoder(variant Variant) (*Encoder, error) {
	switch variant {
	case VariantV1:
		return &Encoder{variant: VariantV1, size: PacketSizeV1}, nil
	case VariantV2:
		return &Encoder{variant: VariantV2, size: PacketSizeV2}, nil
	default:
		return nil, fmt.Errorf("unrecognized protocol variant: %q", variant)
	}
}

// Variant returns the wire format this encoder produces.
func (e *Encoder) Variant() Variant {
	return e.variant
}

// PacketSize returns the constant output length in bytes.
func (e *Encoder) PacketSize() int {
	return e.size
}

// Encode serializes one feature record. The returned slice is freshly
// allocated and safe to hand to the dispatcher unmodified.
func (e *Encoder) Encode(feat dsp.Features) []byte {
	if e.variant == VariantV2 {
		return encodeV2(feat)
	}
	return encodeV1(feat)
}

// encodeV1 packs the legacy unicast record, little-endian:
//
//	[0:6]   header "00001\x00"
//	[6:10]  raw level, float32
//	[10]    peak level, uint8
//	[11]    reserved
//	[12:28] 16 band bytes
//	[28:30] dominant frequency, uint16 Hz (clamped)
//	[30:34] magnitude sum, float32
//	[34:36] reserved
func encodeV1(feat dsp.Features) []byte {
	pkt := make([]byte, PacketSizeV1)
	copy(pkt[0:6], headerV1[:])
	binary.LittleEndian.PutUint32(pkt[6:10], math.Float32bits(float32(feat.RawLevel)))
	pkt[10] = feat.PeakLevel
	copy(pkt[12:28], feat.Bands[:])
	binary.LittleEndian.PutUint16(pkt[28:30], clampUint16(feat.DominantFreq))
	binary.LittleEndian.PutUint32(pkt[30:34], math.Float32bits(float32(feat.MagnitudeSum)))
	return pkt
}

// encodeV2 packs the multicast sync record, little-endian:
//
//	[0:6]   header "00002\x00"
//	[6:8]   reserved
//	[8:12]  raw level, float32
//	[12:16] smoothed level, float32
//	[16]    peak level, uint8
//	[17]    reserved
//	[18:34] 16 band bytes
//	[34:36] reserved
//	[36:40] magnitude sum, float32
//	[40:44] dominant frequency, float32 Hz
func encodeV2(feat dsp.Features) []byte {
	pkt := make([]byte, PacketSizeV2)
	copy(pkt[0:6], headerV2[:])
	binary.LittleEndian.PutUint32(pkt[8:12], math.Float32bits(float32(feat.RawLevel)))
	binary.LittleEndian.PutUint32(pkt[12:16], math.Float32bits(float32(feat.SmoothedLevel)))
	pkt[16] = feat.PeakLevel
	copy(pkt[18:34], feat.Bands[:])
	binary.LittleEndian.PutUint32(pkt[36:40], math.Float32bits(float32(feat.MagnitudeSum)))
	binary.LittleEndian.PutUint32(pkt[40:44], math.Float32bits(float32(feat.DominantFreq)))
	return pkt
}

// clampUint16 converts a frequency in Hz to the V1 field range.
func clampUint16(v float64) uint16 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(r)
}
