package hickae

import (
	"encoding/binary"
	"io"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/Alfred-hhy/HICKAE-DB/internal/kdf"
)

// PEKSToken is a searchable ciphertext produced by one writer for one keyword.
//
//	C1 = [r]G2
//	C2 = [r]Q_i
//	C3 = [r](A_i + [t_w]U_i0 + U_i1 + [d]Y)
//
// where d hashes (epoch, i, C1, C2, payload). The payload travels in the clear;
// changing it, or the writer index, changes d and the token no longer matches.
type PEKSToken struct {
	epoch   Epoch
	writer  int
	c1, c2  bls12381.G2Affine
	c3      bls12381.G1Affine
	payload []byte
}

// Writer returns the index of the writer that produced the token.
func (t *PEKSToken) Writer() int { return t.writer }

// Epoch returns the initialization the token belongs to.
func (t *PEKSToken) Epoch() Epoch { return t.epoch }

// Payload returns a copy of the application data carried by the token.
func (t *PEKSToken) Payload() []byte { return append([]byte(nil), t.payload...) }

// payloadScalar is d. It covers everything in the token except C3.
func (t *PEKSToken) payloadScalar() (fr.Element, error) {
	var w [4]byte
	binary.BigEndian.PutUint32(w[:], uint32(t.writer))
	c1 := t.c1.Bytes()
	c2 := t.c2.Bytes()
	d, err := kdf.HashToScalar(kdf.DomainBinding, t.epoch[:], w[:], c1[:], c2[:], t.payload)
	if err != nil {
		return fr.Element{}, primitiveErr("hash payload", err)
	}
	return d, nil
}

// keywordScalar hashes a keyword under the class tag. Encode and Extract must
// agree on it bit for bit.
func keywordScalar(cb *ClassBindingKey, keyword string) (fr.Element, error) {
	t, err := kdf.HashToScalar(kdf.DomainKeyword, cb.Tag[:], []byte(keyword))
	if err != nil {
		return fr.Element{}, primitiveErr("hash keyword", err)
	}
	return t, nil
}

// encodeToken builds a token for writer pub. Fresh r only blinds the token;
// it cancels out of the match equation.
func encodeToken(pp *DomainParameters, pub *PublicIdentity, anchor *classAnchor, cb *ClassBindingKey,
	keyword string, payload []byte, rnd io.Reader) (*PEKSToken, error) {

	t, err := keywordScalar(cb, keyword)
	if err != nil {
		return nil, err
	}
	r, err := kdf.RandomScalar(rnd)
	if err != nil {
		return nil, primitiveErr("encode", err)
	}

	tok := &PEKSToken{
		epoch:   pp.Epoch,
		writer:  pub.Index,
		c1:      g2Base(&r),
		c2:      g2Exp(&pub.Q, &r),
		payload: append([]byte(nil), payload...),
	}
	d, err := tok.payloadScalar()
	if err != nil {
		return nil, err
	}

	// C3 = [r](A_i + [t]U0 + U1 + [d]Y)
	base := keywordPoint(&t, &anchor.U[0], &anchor.U[1])
	base.AddMixed(&pub.A)
	dy := g1Exp(&cb.payload, &d)
	base.AddMixed(&dy)
	scaleJac(&base, &r)
	tok.c3 = affineG1(&base)
	return tok, nil
}
