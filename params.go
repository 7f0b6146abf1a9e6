package hickae

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/Alfred-hhy/HICKAE-DB/internal/kdf"
)

// Curve names the pairing instance every DomainParameters is built on.
const Curve = "bls12-381"

// EpochSize is the length of the random tag identifying one initialization.
const EpochSize = 16

// Epoch identifies one Initialize call. Tokens and trapdoors carry it so that
// artifacts from different initializations never match.
type Epoch [EpochSize]byte

func (e Epoch) String() string { return fmt.Sprintf("%x", e[:]) }

// DomainParameters are the public, immutable parameters of one initialization.
type DomainParameters struct {
	Curve   string
	Order   *big.Int // q, the prime order of G1, G2 and GT
	Writers int      // n
	Epoch   Epoch

	G1 bls12381.G1Affine
	G2 bls12381.G2Affine
	GT bls12381.GT // e(G1, G2)

	// MasterPublic is [alpha]G2.
	MasterPublic bls12381.G2Affine
}

// MasterKeyPair holds alpha. Only the System that created it can read the secret.
type MasterKeyPair struct {
	alpha  fr.Element
	Public bls12381.G2Affine
}

// fingerprint digests every public parameter. Class binding elements are
// hashed from it, so they change with each initialization.
func (pp *DomainParameters) fingerprint() [32]byte {
	g1 := pp.G1.Bytes()
	g2 := pp.G2.Bytes()
	mpk := pp.MasterPublic.Bytes()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(pp.Writers))
	return kdf.Digest(kdf.DomainEpoch, []byte(pp.Curve), pp.Epoch[:], n[:], g1[:], g2[:], mpk[:])
}

// setupDomain selects the pairing instance and draws a fresh epoch.
func setupDomain(n int, rnd io.Reader) (*DomainParameters, error) {
	if n <= 0 {
		return nil, paramErr("initialize", "writer count must be > 0, got %d", n)
	}

	// Curve generators (type-3 pairing groups)
	_, _, g1, g2 := bls12381.Generators()
	gt, err := bls12381.Pair([]bls12381.G1Affine{g1}, []bls12381.G2Affine{g2})
	if err != nil {
		return nil, paramErr("initialize", "pairing instance: %v", err)
	}
	if gt.IsOne() {
		return nil, paramErr("initialize", "pairing instance is degenerate")
	}

	pp := &DomainParameters{
		Curve:   Curve,
		Order:   fr.Modulus(),
		Writers: n,
		G1:      g1,
		G2:      g2,
		GT:      gt,
	}
	if _, err := io.ReadFull(rnd, pp.Epoch[:]); err != nil {
		return nil, primitiveErr("initialize", fmt.Errorf("epoch: %w", err))
	}
	return pp, nil
}

// generateMasterKey samples alpha <- Z_q* and publishes [alpha]G2 into pp.
func generateMasterKey(pp *DomainParameters, rnd io.Reader) (*MasterKeyPair, error) {
	alpha, err := kdf.RandomScalar(rnd)
	if err != nil {
		return nil, primitiveErr("initialize", err)
	}
	msk := &MasterKeyPair{alpha: alpha, Public: g2Exp(&pp.G2, &alpha)}
	pp.MasterPublic = msk.Public
	return msk, nil
}

// secretBytes is the canonical encoding of alpha used as KDF input.
func (m *MasterKeyPair) secretBytes() []byte {
	b := m.alpha.Bytes()
	return b[:]
}
