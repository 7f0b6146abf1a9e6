package hickae

import (
	"encoding/binary"
	"fmt"
	"math"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// Wire format. Every group element uses its fixed-size compressed form:
//
//	token: 'T' ver | epoch[16] | writer u32 | C1 G2 | C2 G2 | C3 G1 | len u32 | payload
//	key:   'K' ver | epoch[16] | count u32 | K0 G2 | K1 G1 | K2 G1 | count x (index u32 | X G1)
//
// Writer indices above math.MaxInt32 are rejected on decode.
const (
	wireVersion = 1

	tagToken = 'T'
	tagKey   = 'K'

	g1Size = bls12381.SizeOfG1AffineCompressed
	g2Size = bls12381.SizeOfG2AffineCompressed

	tokenHeaderSize = 2 + EpochSize + 4 + 2*g2Size + g1Size + 4
	keyHeaderSize   = 2 + EpochSize + 4 + g2Size + 2*g1Size
	keyMemberSize   = 4 + g1Size

	// MaxPayloadSize bounds decoded payloads.
	MaxPayloadSize = 1 << 24
)

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *PEKSToken) MarshalBinary() ([]byte, error) {
	if len(t.payload) > MaxPayloadSize {
		return nil, paramErr("encode token", "payload of %d bytes exceeds %d", len(t.payload), MaxPayloadSize)
	}
	out := make([]byte, 0, tokenHeaderSize+len(t.payload))
	out = append(out, tagToken, wireVersion)
	out = append(out, t.epoch[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(t.writer))
	c1 := t.c1.Bytes()
	c2 := t.c2.Bytes()
	c3 := t.c3.Bytes()
	out = append(out, c1[:]...)
	out = append(out, c2[:]...)
	out = append(out, c3[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(t.payload)))
	out = append(out, t.payload...)
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Points are checked
// to lie in the prime-order subgroup.
func (t *PEKSToken) UnmarshalBinary(data []byte) error {
	const op = "decode token"
	if len(data) < tokenHeaderSize {
		return paramErr(op, "need at least %d bytes, got %d", tokenHeaderSize, len(data))
	}
	if data[0] != tagToken || data[1] != wireVersion {
		return paramErr(op, "unexpected header %x", data[:2])
	}
	var tok PEKSToken
	r := reader{buf: data[2:]}
	copy(tok.epoch[:], r.next(EpochSize))
	writer, err := decodeIndex(r.next(4))
	if err != nil {
		return paramErr(op, "writer: %v", err)
	}
	tok.writer = writer
	if err := setG2(&tok.c1, r.next(g2Size)); err != nil {
		return paramErr(op, "C1: %v", err)
	}
	if err := setG2(&tok.c2, r.next(g2Size)); err != nil {
		return paramErr(op, "C2: %v", err)
	}
	if err := setG1(&tok.c3, r.next(g1Size)); err != nil {
		return paramErr(op, "C3: %v", err)
	}
	size := binary.BigEndian.Uint32(r.next(4))
	if size > MaxPayloadSize || int(size) != len(r.buf) {
		return paramErr(op, "payload length %d does not match %d remaining bytes", size, len(r.buf))
	}
	tok.payload = append([]byte(nil), r.buf...)
	*t = tok
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (k *AggregateKey) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, keyHeaderSize+len(k.members)*keyMemberSize)
	out = append(out, tagKey, wireVersion)
	out = append(out, k.epoch[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(k.members)))
	k0 := k.k0.Bytes()
	k1 := k.k1.Bytes()
	k2 := k.k2.Bytes()
	out = append(out, k0[:]...)
	out = append(out, k1[:]...)
	out = append(out, k2[:]...)
	for a, i := range k.members {
		out = binary.BigEndian.AppendUint32(out, uint32(i))
		x := k.x[a].Bytes()
		out = append(out, x[:]...)
	}
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Member indices must
// be strictly increasing.
func (k *AggregateKey) UnmarshalBinary(data []byte) error {
	const op = "decode key"
	if len(data) < keyHeaderSize {
		return paramErr(op, "need at least %d bytes, got %d", keyHeaderSize, len(data))
	}
	if data[0] != tagKey || data[1] != wireVersion {
		return paramErr(op, "unexpected header %x", data[:2])
	}
	var key AggregateKey
	r := reader{buf: data[2:]}
	copy(key.epoch[:], r.next(EpochSize))
	count := int(binary.BigEndian.Uint32(r.next(4)))
	if count == 0 || len(data) != keyHeaderSize+count*keyMemberSize {
		return paramErr(op, "member count %d does not match %d bytes", count, len(data))
	}
	if err := setG2(&key.k0, r.next(g2Size)); err != nil {
		return paramErr(op, "K0: %v", err)
	}
	if err := setG1(&key.k1, r.next(g1Size)); err != nil {
		return paramErr(op, "K1: %v", err)
	}
	if err := setG1(&key.k2, r.next(g1Size)); err != nil {
		return paramErr(op, "K2: %v", err)
	}
	key.members = make([]int, count)
	key.x = make([]bls12381.G1Affine, count)
	for a := 0; a < count; a++ {
		idx, err := decodeIndex(r.next(4))
		if err != nil {
			return paramErr(op, "member %d: %v", a, err)
		}
		key.members[a] = idx
		if a > 0 && key.members[a] <= key.members[a-1] {
			return paramErr(op, "members not strictly increasing at position %d", a)
		}
		if err := setG1(&key.x[a], r.next(g1Size)); err != nil {
			return paramErr(op, "X[%d]: %v", a, err)
		}
	}
	*k = key
	return nil
}

type reader struct{ buf []byte }

// decodeIndex decodes a u32 writer index that must fit in an int32.
func decodeIndex(b []byte) (int, error) {
	v := binary.BigEndian.Uint32(b)
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("index %d exceeds %d", v, math.MaxInt32)
	}
	return int(v), nil
}

// next returns the following n bytes. Callers check the total length first.
func (r *reader) next(n int) []byte {
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func setG1(p *bls12381.G1Affine, b []byte) error {
	if _, err := p.SetBytes(b); err != nil {
		return fmt.Errorf("invalid G1 point: %w", err)
	}
	return nil
}

func setG2(p *bls12381.G2Affine, b []byte) error {
	if _, err := p.SetBytes(b); err != nil {
		return fmt.Errorf("invalid G2 point: %w", err)
	}
	return nil
}
