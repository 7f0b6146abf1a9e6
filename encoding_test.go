package hickae

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenWireFormat(t *testing.T) {
	sys := newReadySystem(t, 3)
	tok := mustEncode(t, sys, 2, "invoice", []byte("doc-42"))
	key := mustExtract(t, sys, []int{2, 0}, "invoice")

	data, err := tok.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, tokenHeaderSize+len("doc-42"))

	var decoded PEKSToken
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, tok.Writer(), decoded.Writer())
	assert.Equal(t, tok.Epoch(), decoded.Epoch())
	assert.Equal(t, tok.Payload(), decoded.Payload())
	assert.True(t, Test(key, &decoded))

	keyData, err := key.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, keyData, keyHeaderSize+2*keyMemberSize)

	var decodedKey AggregateKey
	require.NoError(t, decodedKey.UnmarshalBinary(keyData))
	assert.Equal(t, []int{0, 2}, decodedKey.Members())
	assert.True(t, Test(&decodedKey, &decoded))
}

func TestTokenPayloadBinding(t *testing.T) {
	sys := newReadySystem(t, 2)
	tok := mustEncode(t, sys, 0, "kw", []byte("original"))
	key := mustExtract(t, sys, []int{0, 1}, "kw")

	data, err := tok.MarshalBinary()
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01

	var tampered PEKSToken
	require.NoError(t, tampered.UnmarshalBinary(data))
	assert.False(t, Test(key, &tampered))

	// claim a different writer
	data, err = tok.MarshalBinary()
	require.NoError(t, err)
	data[2+EpochSize+3] = 1
	require.NoError(t, tampered.UnmarshalBinary(data))
	assert.Equal(t, 1, tampered.Writer())
	assert.False(t, Test(key, &tampered))
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	sys := newReadySystem(t, 2)
	tok := mustEncode(t, sys, 1, "kw", []byte("abc"))
	key := mustExtract(t, sys, []int{0, 1}, "kw")
	tokData, err := tok.MarshalBinary()
	require.NoError(t, err)
	keyData, err := key.MarshalBinary()
	require.NoError(t, err)

	var pt PEKSToken
	assert.ErrorIs(t, pt.UnmarshalBinary(nil), ErrParameter)
	assert.ErrorIs(t, pt.UnmarshalBinary(tokData[:tokenHeaderSize-1]), ErrParameter)
	assert.ErrorIs(t, pt.UnmarshalBinary(tokData[:len(tokData)-1]), ErrParameter, "truncated payload")
	assert.ErrorIs(t, pt.UnmarshalBinary(keyData), ErrParameter, "key header")

	bad := append([]byte(nil), tokData...)
	bad[1] = wireVersion + 1
	assert.ErrorIs(t, pt.UnmarshalBinary(bad), ErrParameter)

	// C3 with an x coordinate above the field modulus
	bad = append([]byte(nil), tokData...)
	off := 2 + EpochSize + 4 + 2*g2Size
	bad[off] = 0x9f
	for i := 1; i < g1Size; i++ {
		bad[off+i] = 0xff
	}
	assert.ErrorIs(t, pt.UnmarshalBinary(bad), ErrParameter)

	var ak AggregateKey
	assert.ErrorIs(t, ak.UnmarshalBinary(keyData[:keyHeaderSize]), ErrParameter)
	assert.ErrorIs(t, ak.UnmarshalBinary(append(keyData, 0)), ErrParameter)

	// swap member order
	bad = append([]byte(nil), keyData...)
	first := keyHeaderSize
	second := keyHeaderSize + keyMemberSize
	bad[first+3], bad[second+3] = bad[second+3], bad[first+3]
	assert.ErrorIs(t, ak.UnmarshalBinary(bad), ErrParameter)
}

func TestUnmarshalRejectsOversizedIndex(t *testing.T) {
	sys := newReadySystem(t, 2)
	tok := mustEncode(t, sys, 1, "kw", nil)
	key := mustExtract(t, sys, []int{0, 1}, "kw")

	data, err := tok.MarshalBinary()
	require.NoError(t, err)
	data[2+EpochSize] = 0x80 // writer 2^31 + 1
	var pt PEKSToken
	assert.ErrorIs(t, pt.UnmarshalBinary(data), ErrParameter)

	keyData, err := key.MarshalBinary()
	require.NoError(t, err)
	last := keyHeaderSize + keyMemberSize
	keyData[last] = 0xff // second member becomes 0xff000001
	var ak AggregateKey
	assert.ErrorIs(t, ak.UnmarshalBinary(keyData), ErrParameter)
}
