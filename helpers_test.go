package hickae

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newReadySystem runs the three setup steps for n writers.
func newReadySystem(t testing.TB, n int) *System {
	t.Helper()
	sys, err := New(Config{Logger: quietLogger()})
	require.NoError(t, err)
	_, _, err = sys.Initialize(n)
	require.NoError(t, err)
	_, err = sys.GenerateIdentities(n)
	require.NoError(t, err)
	_, _, err = sys.Precompute()
	require.NoError(t, err)
	return sys
}

func mustEncode(t testing.TB, sys *System, i int, kw string, payload []byte) *PEKSToken {
	t.Helper()
	tok, err := sys.Encode(i, kw, payload)
	require.NoError(t, err)
	return tok
}

func mustExtract(t testing.TB, sys *System, subset []int, kw string) *AggregateKey {
	t.Helper()
	key, err := sys.Extract(subset, kw)
	require.NoError(t, err)
	return key
}
