package hickae

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioThreeWriters(t *testing.T) {
	sys := newReadySystem(t, 3)

	tok := mustEncode(t, sys, 1, "invoice", []byte("doc-17"))

	assert.True(t, Test(mustExtract(t, sys, []int{0, 1, 2}, "invoice"), tok))
	assert.True(t, Test(mustExtract(t, sys, []int{1}, "invoice"), tok))
	assert.False(t, Test(mustExtract(t, sys, []int{0, 2}, "invoice"), tok))
	assert.False(t, Test(mustExtract(t, sys, []int{1}, "receipt"), tok))
	assert.False(t, Test(mustExtract(t, sys, []int{0, 1, 2}, "receipt"), tok))

	assert.Equal(t, []byte("doc-17"), tok.Payload())
	assert.Equal(t, 1, tok.Writer())
}

func TestEveryWriterMatchesFullSet(t *testing.T) {
	const n = 5
	sys := newReadySystem(t, n)
	all := []int{0, 1, 2, 3, 4}
	key := mustExtract(t, sys, all, "alpha")
	for i := 0; i < n; i++ {
		tok := mustEncode(t, sys, i, "alpha", nil)
		assert.Truef(t, Test(key, tok), "writer %d", i)

		single := mustExtract(t, sys, []int{i}, "alpha")
		assert.Truef(t, Test(single, tok), "singleton %d", i)

		other := mustExtract(t, sys, []int{(i + 1) % n}, "alpha")
		assert.Falsef(t, Test(other, tok), "writer %d against singleton %d", i, (i+1)%n)
	}
}

func TestSubsetOrderAndDuplicates(t *testing.T) {
	sys := newReadySystem(t, 4)
	tok := mustEncode(t, sys, 2, "kw", []byte("x"))

	for _, subset := range [][]int{{0, 2, 3}, {3, 2, 0}, {2, 0, 3, 2, 0}} {
		key := mustExtract(t, sys, subset, "kw")
		assert.Equal(t, []int{0, 2, 3}, key.Members())
		assert.True(t, Test(key, tok), "subset %v", subset)
	}
}

func TestTokensAreRandomized(t *testing.T) {
	sys := newReadySystem(t, 2)
	a := mustEncode(t, sys, 0, "same", []byte("p"))
	b := mustEncode(t, sys, 0, "same", []byte("p"))
	ab, err := a.MarshalBinary()
	require.NoError(t, err)
	bb, err := b.MarshalBinary()
	require.NoError(t, err)
	assert.False(t, bytes.Equal(ab, bb))

	key := mustExtract(t, sys, []int{0}, "same")
	assert.True(t, Test(key, a))
	assert.True(t, Test(key, b))
}

func TestEmptyKeywordAndPayload(t *testing.T) {
	sys := newReadySystem(t, 2)
	tok := mustEncode(t, sys, 0, "", nil)
	assert.True(t, Test(mustExtract(t, sys, []int{0, 1}, ""), tok))
	assert.False(t, Test(mustExtract(t, sys, []int{0, 1}, " "), tok))
	assert.Empty(t, tok.Payload())
}

func TestIdentitiesAreDeterministic(t *testing.T) {
	sys, err := New(Config{Logger: quietLogger()})
	require.NoError(t, err)
	_, _, err = sys.Initialize(4)
	require.NoError(t, err)

	first, err := sys.GenerateIdentities(4)
	require.NoError(t, err)
	second, err := sys.GenerateIdentities(4)
	require.NoError(t, err)
	require.Len(t, first, 4)

	seen := map[[32]byte]bool{}
	for i := range first {
		assert.Equal(t, first[i].SecretBytes(), second[i].SecretBytes())
		assert.True(t, first[i].P.Equal(&second[i].P))
		assert.Equal(t, i, first[i].Index)
		seen[first[i].SecretBytes()] = true
	}
	assert.Len(t, seen, 4, "secrets must be distinct")
}

func TestReinitializeInvalidatesArtifacts(t *testing.T) {
	sys := newReadySystem(t, 3)
	oldTok := mustEncode(t, sys, 0, "kw", nil)
	oldKey := mustExtract(t, sys, []int{0, 1, 2}, "kw")
	oldParams, err := sys.Params()
	require.NoError(t, err)

	_, _, err = sys.Initialize(3)
	require.NoError(t, err)

	_, err = sys.Encode(0, "kw", nil)
	assert.ErrorIs(t, err, ErrState, "identities must be regenerated")
	_, err = sys.Extract([]int{0}, "kw")
	assert.ErrorIs(t, err, ErrState)

	_, err = sys.GenerateIdentities(3)
	require.NoError(t, err)
	_, _, err = sys.Precompute()
	require.NoError(t, err)

	newParams, err := sys.Params()
	require.NoError(t, err)
	assert.NotEqual(t, oldParams.Epoch, newParams.Epoch)

	newTok := mustEncode(t, sys, 0, "kw", nil)
	newKey := mustExtract(t, sys, []int{0, 1, 2}, "kw")
	assert.True(t, Test(newKey, newTok))
	assert.False(t, Test(newKey, oldTok))
	assert.False(t, Test(oldKey, newTok))
}

func TestStateErrors(t *testing.T) {
	sys, err := New(Config{Logger: quietLogger()})
	require.NoError(t, err)

	_, err = sys.GenerateIdentities(3)
	assert.ErrorIs(t, err, ErrState)
	_, _, err = sys.Precompute()
	assert.ErrorIs(t, err, ErrState)
	_, err = sys.Encode(0, "kw", nil)
	assert.ErrorIs(t, err, ErrState)
	_, err = sys.Extract([]int{0}, "kw")
	assert.ErrorIs(t, err, ErrState)
	_, err = sys.Params()
	assert.ErrorIs(t, err, ErrState)

	_, _, err = sys.Initialize(3)
	require.NoError(t, err)
	_, _, err = sys.Precompute()
	assert.ErrorIs(t, err, ErrState, "precompute before identities")

	_, err = sys.GenerateIdentities(3)
	require.NoError(t, err)
	_, err = sys.Encode(0, "kw", nil)
	assert.ErrorIs(t, err, ErrState, "encode before precompute")
}

func TestParameterAndRangeErrors(t *testing.T) {
	sys, err := New(Config{Logger: quietLogger()})
	require.NoError(t, err)

	_, _, err = sys.Initialize(0)
	assert.ErrorIs(t, err, ErrParameter)
	_, _, err = sys.Initialize(-4)
	assert.Equal(t, KindParameter, KindOf(err))

	_, _, err = sys.Initialize(3)
	require.NoError(t, err)
	_, err = sys.GenerateIdentities(4)
	assert.ErrorIs(t, err, ErrParameter)
	_, err = sys.GenerateIdentities(3)
	require.NoError(t, err)
	_, _, err = sys.Precompute()
	require.NoError(t, err)

	for _, i := range []int{-1, 3, 100} {
		_, err = sys.Encode(i, "kw", nil)
		assert.ErrorIs(t, err, ErrRange, "writer %d", i)
	}
	for _, subset := range [][]int{nil, {}, {0, 3}, {-1}} {
		_, err = sys.Extract(subset, "kw")
		assert.ErrorIs(t, err, ErrRange, "subset %v", subset)
	}

	var e *Error
	_, err = sys.Encode(7, "kw", nil)
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "encode", e.Op)
	assert.False(t, errors.Is(err, ErrState))
}

func TestPrecomputeRespectsCeiling(t *testing.T) {
	sys, err := New(Config{MaxWriters: 2, Logger: quietLogger()})
	require.NoError(t, err)
	_, _, err = sys.Initialize(3)
	require.NoError(t, err)
	_, err = sys.GenerateIdentities(3)
	require.NoError(t, err)
	_, _, err = sys.Precompute()
	assert.ErrorIs(t, err, ErrParameter)
}

func TestTimingsRecorded(t *testing.T) {
	sys, err := New(Config{Logger: quietLogger(), VerifyCorrelation: true})
	require.NoError(t, err)
	assert.Zero(t, sys.Timings())

	_, _, err = sys.Initialize(2)
	require.NoError(t, err)
	_, err = sys.GenerateIdentities(2)
	require.NoError(t, err)
	_, _, err = sys.Precompute()
	require.NoError(t, err)

	tm := sys.Timings()
	assert.Positive(t, tm.Setup)
	assert.Positive(t, tm.KeyGen)
	assert.Positive(t, tm.IGen)
	assert.Positive(t, tm.Prep)
	assert.True(t, tm.Verified)
}

func TestConcurrentEncodeExtract(t *testing.T) {
	const n = 4
	sys := newReadySystem(t, n)

	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	results := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := sys.Encode(i, "shared", []byte{byte(i)})
			if err != nil {
				errs <- err
				return
			}
			key, err := sys.Extract([]int{0, 1, 2, 3}, "shared")
			if err != nil {
				errs <- err
				return
			}
			results[i] = Test(key, tok)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	for i, ok := range results {
		assert.Truef(t, ok, "writer %d", i)
	}
}

func TestIdentitiesExposePublicHalf(t *testing.T) {
	sys := newReadySystem(t, 3)
	pubs, err := sys.Identities()
	require.NoError(t, err)
	require.Len(t, pubs, 3)
	for i, p := range pubs {
		assert.Equal(t, i, p.Index)
		assert.False(t, p.P.IsInfinity())
	}
}
