package hickae

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// g1Exp returns [e]g as an affine point.
func g1Exp(g *bls12381.G1Affine, e *fr.Element) bls12381.G1Affine {
	var bi big.Int
	e.BigInt(&bi)
	var out bls12381.G1Affine
	out.ScalarMultiplication(g, &bi)
	return out
}

// g2Exp returns [e]g as an affine point.
func g2Exp(g *bls12381.G2Affine, e *fr.Element) bls12381.G2Affine {
	var bi big.Int
	e.BigInt(&bi)
	var out bls12381.G2Affine
	out.ScalarMultiplication(g, &bi)
	return out
}

// g2Base returns [e]g2 for the fixed G2 generator.
func g2Base(e *fr.Element) bls12381.G2Affine {
	var bi big.Int
	e.BigInt(&bi)
	var out bls12381.G2Affine
	out.ScalarMultiplicationBase(&bi)
	return out
}

// keywordPoint returns [t]v0 + v1.
func keywordPoint(t *fr.Element, v0, v1 *bls12381.G1Affine) bls12381.G1Jac {
	var bi big.Int
	t.BigInt(&bi)
	var acc, tmp bls12381.G1Jac
	tmp.FromAffine(v0)
	acc.ScalarMultiplication(&tmp, &bi)
	acc.AddMixed(v1)
	return acc
}

// scaleJac sets p = [e]p.
func scaleJac(p *bls12381.G1Jac, e *fr.Element) {
	var bi big.Int
	e.BigInt(&bi)
	p.ScalarMultiplication(p, &bi)
}

func affineG1(p *bls12381.G1Jac) bls12381.G1Affine {
	var out bls12381.G1Affine
	out.FromJacobian(p)
	return out
}
