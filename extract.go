package hickae

import (
	"io"
	"slices"
	"sort"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"

	"github.com/Alfred-hhy/HICKAE-DB/internal/kdf"
	"github.com/Alfred-hhy/HICKAE-DB/internal/workers"
)

// AggregateKey is a search trapdoor for one keyword over a set of writers.
//
//	K0  = [rho]G2
//	K1  = [rho](sum_{j in S} P_j + [t_w]V0 + V1)
//	K2  = [rho]Y
//	X_i = [rho](sum_{j in S, j != i} Z[i][j])   for every i in S
//
// Members are sorted and unique, so equal sets give equivalent keys whatever
// order they were requested in.
type AggregateKey struct {
	epoch   Epoch
	members []int
	k0      bls12381.G2Affine
	k1, k2  bls12381.G1Affine
	x       []bls12381.G1Affine
}

// Epoch returns the initialization the key belongs to.
func (k *AggregateKey) Epoch() Epoch { return k.epoch }

// Members returns a copy of the writer set the key was extracted for.
func (k *AggregateKey) Members() []int { return append([]int(nil), k.members...) }

// Covers reports whether writer i is in the key's set.
func (k *AggregateKey) Covers(i int) bool {
	_, ok := k.position(i)
	return ok
}

func (k *AggregateKey) position(i int) (int, bool) {
	pos := sort.SearchInts(k.members, i)
	if pos < len(k.members) && k.members[pos] == i {
		return pos, true
	}
	return 0, false
}

// normalizeSubset validates indices against [0, n), then sorts and dedupes.
func normalizeSubset(op string, subset []int, n int) ([]int, error) {
	if len(subset) == 0 {
		return nil, rangeErr(op, "writer subset is empty")
	}
	for _, i := range subset {
		if i < 0 || i >= n {
			return nil, rangeErr(op, "writer index %d outside [0,%d)", i, n)
		}
	}
	members := slices.Clone(subset)
	slices.Sort(members)
	return slices.Compact(members), nil
}

// extractKey combines the members' correlation rows with the class binding.
// Row sums cost |S|^2 point additions; only |S|+3 scalar multiplications are
// needed on top.
func extractKey(pp *DomainParameters, ids []WriterIdentity, corr *CorrelationMatrix, cb *ClassBindingKey,
	members []int, keyword string, rnd io.Reader, limit int) (*AggregateKey, error) {

	t, err := keywordScalar(cb, keyword)
	if err != nil {
		return nil, err
	}
	rho, err := kdf.RandomScalar(rnd)
	if err != nil {
		return nil, primitiveErr("extract", err)
	}

	acc := keywordPoint(&t, &cb.elements[0], &cb.elements[1])
	for _, j := range members {
		acc.AddMixed(&ids[j].P)
	}
	scaleJac(&acc, &rho)

	rows := make([]bls12381.G1Jac, len(members))
	err = workers.Range(len(members), limit, func(start, end int) error {
		for a := start; a < end; a++ {
			i := members[a]
			var row bls12381.G1Jac
			row.FromAffine(&bls12381.G1Affine{})
			for _, j := range members {
				if j == i {
					continue
				}
				row.AddMixed(corr.at(i, j))
			}
			scaleJac(&row, &rho)
			rows[a] = row
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AggregateKey{
		epoch:   pp.Epoch,
		members: members,
		k0:      g2Base(&rho),
		k1:      affineG1(&acc),
		k2:      g1Exp(&cb.payload, &rho),
		x:       bls12381.BatchJacobianToAffineG1(rows),
	}, nil
}
