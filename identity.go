package hickae

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/Alfred-hhy/HICKAE-DB/internal/kdf"
)

// PublicIdentity is the public half of a writer identity.
type PublicIdentity struct {
	Index int
	P     bls12381.G1Affine // [sk]G1
	A     bls12381.G1Affine // [sk^2]G1
	Q     bls12381.G2Affine // [sk]G2
}

// WriterIdentity is one writer's key pair. The secret never leaves this value
// except through SecretBytes, which the owning writer may use to check
// reproducibility.
type WriterIdentity struct {
	PublicIdentity
	sk fr.Element
}

// SecretBytes returns the canonical big-endian encoding of sk.
func (w *WriterIdentity) SecretBytes() [fr.Bytes]byte { return w.sk.Bytes() }

// Public returns a copy of the public half.
func (w *WriterIdentity) Public() PublicIdentity { return w.PublicIdentity }

// deriveIdentities computes sk_i = KDF(alpha, i) for every i in [0, n) and the
// matching public elements. The result depends only on alpha and n.
func deriveIdentities(pp *DomainParameters, msk *MasterKeyPair) ([]WriterIdentity, error) {
	n := pp.Writers
	secret := msk.secretBytes()
	defer kdf.Zeroize(secret)

	sks := make([]fr.Element, n)
	sq := make([]fr.Element, n)
	for i := 0; i < n; i++ {
		sk, err := kdf.Scalar(secret, kdf.DomainWriter, uint64(i))
		if err != nil {
			return nil, primitiveErr("generate identities", err)
		}
		sks[i] = sk
		sq[i].Square(&sk)
	}

	ps := bls12381.BatchScalarMultiplicationG1(&pp.G1, sks)
	as := bls12381.BatchScalarMultiplicationG1(&pp.G1, sq)
	qs := bls12381.BatchScalarMultiplicationG2(&pp.G2, sks)

	ids := make([]WriterIdentity, n)
	for i := range ids {
		ids[i] = WriterIdentity{
			PublicIdentity: PublicIdentity{Index: i, P: ps[i], A: as[i], Q: qs[i]},
			sk:             sks[i],
		}
	}
	return ids, nil
}
