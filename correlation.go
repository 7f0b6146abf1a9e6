package hickae

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/Alfred-hhy/HICKAE-DB/internal/kdf"
	"github.com/Alfred-hhy/HICKAE-DB/internal/workers"
)

// ClassWidth is the number of keyword elements in a ClassBindingKey.
const ClassWidth = 2

// ClassBindingKey normalizes keywords across writers. A keyword w maps to the
// single point H_w = [t_w]V0 + V1, where t_w is hashed under Tag, whatever
// writer encodes it. V0 and V1 are scaled by secrets derived from the master
// key, so H_w cannot be recomputed from public parameters. Only Tag is public.
type ClassBindingKey struct {
	Tag [32]byte

	elements [ClassWidth]bls12381.G1Affine
	// payload is Y, the point a token's payload digest is folded into.
	payload bls12381.G1Affine
}

// CorrelationMatrix is the symmetric n x n table Z[i][j] = [sk_i*sk_j]G1 in
// row-major order. Its pairing image e(Z[i][j], G2) equals e(P_i, Q_j).
type CorrelationMatrix struct {
	n       int
	entries []bls12381.G1Affine
}

// classAnchor is writer i's share of the class binding: U[k] = [sk_i]V_k.
type classAnchor struct {
	U [ClassWidth]bls12381.G1Affine
}

// Writers returns n.
func (c *CorrelationMatrix) Writers() int { return c.n }

// MemoryBytes is the in-memory size of the table.
func (c *CorrelationMatrix) MemoryBytes() uint64 {
	return uint64(len(c.entries)) * bls12381.SizeOfG1AffineUncompressed
}

// Entry returns Z[i][j].
func (c *CorrelationMatrix) Entry(i, j int) (bls12381.G1Affine, error) {
	if i < 0 || i >= c.n || j < 0 || j >= c.n {
		return bls12381.G1Affine{}, rangeErr("correlation", "entry (%d,%d) outside [0,%d)", i, j, c.n)
	}
	return c.entries[i*c.n+j], nil
}

// Pairing returns corr[i][j] = e(Z[i][j], G2) = e(G1,G2)^(sk_i*sk_j).
func (c *CorrelationMatrix) Pairing(pp *DomainParameters, i, j int) (bls12381.GT, error) {
	z, err := c.Entry(i, j)
	if err != nil {
		return bls12381.GT{}, err
	}
	gt, err := bls12381.Pair([]bls12381.G1Affine{z}, []bls12381.G2Affine{pp.G2})
	if err != nil {
		return bls12381.GT{}, primitiveErr("correlation", err)
	}
	return gt, nil
}

// at is the unchecked accessor used on hot paths after range validation.
func (c *CorrelationMatrix) at(i, j int) *bls12381.G1Affine { return &c.entries[i*c.n+j] }

// classBase hashes the parameter fingerprint onto the k-th public base point.
func classBase(fp [32]byte, k int) (bls12381.G1Affine, error) {
	msg := append(fp[:], byte(k))
	return bls12381.HashToG1(msg, []byte(kdf.DomainClass))
}

// deriveClassBinding sets V_k = [beta_k]B_k, with B_k = classBase(fp, k) and
// beta_k = KDF(alpha, k).
func deriveClassBinding(pp *DomainParameters, msk *MasterKeyPair) (*ClassBindingKey, error) {
	fp := pp.fingerprint()
	secret := msk.secretBytes()
	defer kdf.Zeroize(secret)

	cb := &ClassBindingKey{Tag: kdf.Digest(kdf.DomainClass, fp[:])}
	for k := 0; k < ClassWidth; k++ {
		base, err := classBase(fp, k)
		if err != nil {
			return nil, primitiveErr("precompute", fmt.Errorf("class element %d: %w", k, err))
		}
		beta, err := kdf.Scalar(secret, kdf.DomainClass, uint64(k))
		if err != nil {
			return nil, primitiveErr("precompute", err)
		}
		cb.elements[k] = g1Exp(&base, &beta)
	}
	y, err := bls12381.HashToG1(fp[:], []byte(kdf.DomainBinding))
	if err != nil {
		return nil, primitiveErr("precompute", fmt.Errorf("payload point: %w", err))
	}
	cb.payload = y
	return cb, nil
}

// buildCorrelation fills the upper triangle (diagonal included) row block by
// row block and mirrors it. Each unordered pair is written by exactly one block.
func buildCorrelation(pp *DomainParameters, ids []WriterIdentity, limit int) (*CorrelationMatrix, error) {
	n := len(ids)
	c := &CorrelationMatrix{n: n, entries: make([]bls12381.G1Affine, n*n)}

	err := workers.Range(n, limit, func(start, end int) error {
		size := 0
		for i := start; i < end; i++ {
			size += n - i
		}
		scalars := make([]fr.Element, 0, size)
		for i := start; i < end; i++ {
			for j := i; j < n; j++ {
				var s fr.Element
				s.Mul(&ids[i].sk, &ids[j].sk)
				scalars = append(scalars, s)
			}
		}
		pts := bls12381.BatchScalarMultiplicationG1(&pp.G1, scalars)
		k := 0
		for i := start; i < end; i++ {
			for j := i; j < n; j++ {
				c.entries[i*n+j] = pts[k]
				c.entries[j*n+i] = pts[k]
				k++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// verifyCorrelation checks e(Z[i][j], G2) == e(P_i, Q_j) for every i <= j.
func verifyCorrelation(pp *DomainParameters, ids []WriterIdentity, c *CorrelationMatrix, limit int) error {
	n := c.n
	return workers.Range(n, limit, func(start, end int) error {
		for i := start; i < end; i++ {
			var negP bls12381.G1Affine
			negP.Neg(&ids[i].P)
			for j := i; j < n; j++ {
				ok, err := bls12381.PairingCheck(
					[]bls12381.G1Affine{*c.at(i, j), negP},
					[]bls12381.G2Affine{pp.G2, ids[j].Q},
				)
				if err != nil {
					return primitiveErr("precompute", err)
				}
				if !ok {
					return primitiveErr("precompute", fmt.Errorf("correlation entry (%d,%d) does not match e(P_i, Q_j)", i, j))
				}
			}
		}
		return nil
	})
}

// deriveAnchors computes [sk_i]V_k for every writer and class element.
func deriveAnchors(cb *ClassBindingKey, ids []WriterIdentity) []classAnchor {
	sks := make([]fr.Element, len(ids))
	for i := range ids {
		sks[i] = ids[i].sk
	}
	anchors := make([]classAnchor, len(ids))
	for k := 0; k < ClassWidth; k++ {
		pts := bls12381.BatchScalarMultiplicationG1(&cb.elements[k], sks)
		for i := range anchors {
			anchors[i].U[k] = pts[i]
		}
	}
	return anchors
}
