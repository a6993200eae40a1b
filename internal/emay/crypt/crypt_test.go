package crypt_test

import (
	"bytes"
	"testing"

	"github.com/jmehdipour/emay-gateway/internal/emay/crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	testCases := []struct {
		name     string
		raw      []byte
		expected []byte
	}{
		{
			name:     "exact",
			raw:      []byte("0123456789abcdef"),
			expected: []byte("0123456789abcdef"),
		},
		{
			name:     "short key is zero padded",
			raw:      []byte("12345678"),
			expected: append([]byte("12345678"), make([]byte, 8)...),
		},
		{
			name:     "long key is truncated",
			raw:      []byte("0123456789abcdefXYZ"),
			expected: []byte("0123456789abcdef"),
		},
		{
			name:     "empty key",
			raw:      nil,
			expected: make([]byte, 16),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := crypt.NormalizeKey(tc.raw)
			assert.Equal(t, tc.expected, got)
			assert.Len(t, got, crypt.KeySize)
			assert.Equal(t, got, crypt.NormalizeKey(got), "normalize must be idempotent")
		})
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	keys := [][]byte{
		[]byte("short"),
		[]byte("0123456789abcdef"),
		[]byte("a-much-longer-secret-key-value"),
	}
	inputs := [][]byte{
		{},
		[]byte("a"),
		[]byte("exactly sixteen!"),
		bytes.Repeat([]byte{0x00, 0xff}, 1000),
	}

	for _, k := range keys {
		for _, in := range inputs {
			ct, err := crypt.Encrypt(in, k)
			require.NoError(t, err)
			assert.Zero(t, len(ct)%16)
			assert.Greater(t, len(ct), len(in))

			pt, err := crypt.Decrypt(ct, k)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(in, pt), "round trip mismatch for %d bytes", len(in))
		}
	}
}

func TestEncrypt_IsECB(t *testing.T) {
	key := []byte("0123456789abcdef")
	in := bytes.Repeat([]byte("same block here!"), 2)

	ct, err := crypt.Encrypt(in, key)
	require.NoError(t, err)
	assert.Equal(t, ct[:16], ct[16:32], "identical plaintext blocks must encrypt identically")
}

func TestDecrypt_Failures(t *testing.T) {
	key := []byte("0123456789abcdef")

	_, err := crypt.Decrypt([]byte("not-a-block"), key)
	assert.ErrorIs(t, err, crypt.ErrDecrypt)

	_, err = crypt.Decrypt(nil, key)
	assert.ErrorIs(t, err, crypt.ErrDecrypt)

	// last block decrypts to a padding byte of 0x20
	bad, err := crypt.Encrypt(bytes.Repeat([]byte{0x20}, 16), key)
	require.NoError(t, err)
	_, err = crypt.Decrypt(bad[:16], key)
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}

func TestSign_KnownVectors(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", crypt.Sign(""))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", crypt.Sign("abc"))
	assert.Equal(t, "9e107d9d372bb6826bd81d3542a419d6", crypt.Sign("The quick brown fox jumps over the lazy dog"))
}

func TestCompressDecompress(t *testing.T) {
	inputs := [][]byte{
		{},
		[]byte(`{"mobile":"13800000001","content":"hello"}`),
		bytes.Repeat([]byte("短信"), 4096),
	}

	for _, in := range inputs {
		z, err := crypt.Compress(in)
		require.NoError(t, err)

		out, err := crypt.Decompress(z)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(in, out))
	}

	_, err := crypt.Decompress([]byte("plain text"))
	assert.Error(t, err)
}
