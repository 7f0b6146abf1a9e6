package hickae

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// Test reports whether tok was produced by a writer in key's set for the
// keyword key was extracted for. With d the token's payload scalar it checks
//
//	e(K1, C2) * e([d]K2 - X_i, C1) == e(C3, K0)
//
// as a single product of three pairings. Keys and tokens from different
// initializations never match, nor do tokens whose payload or writer index
// was altered after encoding.
func Test(key *AggregateKey, tok *PEKSToken) bool {
	if key == nil || tok == nil {
		return false
	}
	if key.epoch != tok.epoch {
		return false
	}
	pos, ok := key.position(tok.writer)
	if !ok {
		return false
	}
	d, err := tok.payloadScalar()
	if err != nil {
		return false
	}

	// w = [d]K2 - X_i
	dk := g1Exp(&key.k2, &d)
	var negX bls12381.G1Affine
	negX.Neg(&key.x[pos])
	var w bls12381.G1Jac
	w.FromAffine(&dk)
	w.AddMixed(&negX)

	var negC3 bls12381.G1Affine
	negC3.Neg(&tok.c3)
	ok, err = bls12381.PairingCheck(
		[]bls12381.G1Affine{key.k1, negC3, affineG1(&w)},
		[]bls12381.G2Affine{tok.c2, key.k0, tok.c1},
	)
	return err == nil && ok
}
