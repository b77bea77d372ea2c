package zsock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZ85(t *testing.T) {
	raw := []byte{0x86, 0x4F, 0xD2, 0x6F, 0xB5, 0x59, 0xF7, 0x5B}

	encoded, err := z85Encode(raw)
	require.NoError(t, err)
	assert.Equal(t, "HelloWorld", encoded)

	decoded, err := z85Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	_, err = z85Encode([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = z85Decode("abc")
	assert.Error(t, err)
	_, err = z85Decode("abc\"d")
	assert.Error(t, err)
}

func TestCurveKeyRoundTrip(t *testing.T) {
	pair, err := NewCurveKeyPair()
	require.NoError(t, err)

	secret, err := decodeCurveKey(pair.Secret)
	require.NoError(t, err)
	assert.Len(t, secret, 32)

	public, err := CurvePublicKey(pair.Secret)
	require.NoError(t, err)
	assert.Equal(t, pair.Public, public)

	_, err = decodeCurveKey(pair.Secret[:35] + "\"\"\"\"\"")
	assert.Error(t, err)
}
