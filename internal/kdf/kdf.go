// Package kdf derives field scalars and digests under fixed domain tags.
package kdf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

const (
	DomainWriter  = "hickae-writer-v1"
	DomainClass   = "hickae-class-v1"
	DomainKeyword = "hickae-keyword-v1"
	DomainBinding = "hickae-binding-v1"
	DomainEpoch   = "hickae-epoch-v1"
)

// WideBytes is the number of bytes reduced into one scalar. The extra 16 bytes
// over fr.Bytes keep the modular bias below 2^-128.
const WideBytes = fr.Bytes + 16

// maxCounter bounds the zero-rejection loop. Hitting it means the source is broken.
const maxCounter = 8

// ErrZeroScalar is returned when derivation keeps producing zero.
var ErrZeroScalar = errors.New("kdf: derived scalar is zero")

// Scalar derives a non-zero scalar from secret for the given domain and index.
// The output is a pure function of (secret, domain, index).
func Scalar(secret []byte, domain string, index uint64) (fr.Element, error) {
	var info [12]byte
	binary.BigEndian.PutUint64(info[:8], index)

	buf := make([]byte, WideBytes)
	defer Zeroize(buf)
	for counter := uint32(0); counter < maxCounter; counter++ {
		binary.BigEndian.PutUint32(info[8:], counter)
		r := hkdf.New(sha3.New256, secret, []byte(domain), info[:])
		if _, err := io.ReadFull(r, buf); err != nil {
			return fr.Element{}, fmt.Errorf("kdf: expand: %w", err)
		}
		var s fr.Element
		s.SetBytes(buf)
		if !s.IsZero() {
			return s, nil
		}
	}
	return fr.Element{}, ErrZeroScalar
}

// RandomScalar samples a uniform non-zero scalar from r.
func RandomScalar(r io.Reader) (fr.Element, error) {
	buf := make([]byte, WideBytes)
	defer Zeroize(buf)
	for attempt := 0; attempt < maxCounter; attempt++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fr.Element{}, fmt.Errorf("kdf: random: %w", err)
		}
		var s fr.Element
		s.SetBytes(buf)
		if !s.IsZero() {
			return s, nil
		}
	}
	return fr.Element{}, ErrZeroScalar
}

// HashToScalar maps the length-prefixed concatenation of parts into Z_q using
// the hash_to_field construction with domain as DST.
func HashToScalar(domain string, parts ...[]byte) (fr.Element, error) {
	out, err := fr.Hash(frame(parts...), []byte(domain), 1)
	if err != nil {
		return fr.Element{}, fmt.Errorf("kdf: hash to field: %w", err)
	}
	return out[0], nil
}

// Digest returns SHA3-256 over the domain tag and the length-prefixed parts.
func Digest(domain string, parts ...[]byte) [32]byte {
	h := sha3.New256()
	h.Write(frame([]byte(domain)))
	h.Write(frame(parts...))
	var d [32]byte
	h.Sum(d[:0])
	return d
}

// frame length-prefixes every part so that distinct part lists never collide.
func frame(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += 4 + len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = binary.BigEndian.AppendUint32(out, uint32(len(p)))
		out = append(out, p...)
	}
	return out
}

// Zeroize overwrites b with zeros.
func Zeroize(b []byte) { clear(b) }
