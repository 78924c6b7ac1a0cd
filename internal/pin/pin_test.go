package pin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var cheap = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHash_DefaultParamsRoundTrip(t *testing.T) {
	encoded, err := Hash("4821")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=4,p=1$"), encoded)

	ok, err := Verify("4821", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("4822", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_Salted(t *testing.T) {
	a, err := HashWithParams("1234", cheap)
	require.NoError(t, err)
	b, err := HashWithParams("1234", cheap)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHash_Empty(t *testing.T) {
	_, err := Hash("")
	assert.ErrorIs(t, err, ErrEmptyPIN)
}

func TestVerify_Argon2id(t *testing.T) {
	encoded, err := HashWithParams("secret-pin", cheap)
	require.NoError(t, err)

	tests := []struct {
		name string
		pin  string
		want bool
	}{
		{"correct", "secret-pin", true},
		{"wrong", "secret-pim", false},
		{"empty", "", false},
		{"prefix", "secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Verify(tt.pin, encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestVerify_Bcrypt(t *testing.T) {
	raw, err := bcrypt.GenerateFromPassword([]byte("7777"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(raw)

	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		encoded := prefix + hash[4:]

		ok, err := Verify("7777", encoded)
		require.NoError(t, err, prefix)
		assert.True(t, ok, prefix)

		ok, err = Verify("7778", encoded)
		require.NoError(t, err, prefix)
		assert.False(t, ok, prefix)
	}
}

func TestVerify_BadHashes(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		wantErr error
	}{
		{"empty", "", ErrUnsupportedHash},
		{"plain text", "1234", ErrUnsupportedHash},
		{"argon2i", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA", ErrUnsupportedHash},
		{"missing parts", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA", ErrMalformedHash},
		{"bad version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g", ErrMalformedHash},
		{"bad params", "$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g", ErrMalformedHash},
		{"zero memory", "$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g", ErrMalformedHash},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaGhhc2g", ErrMalformedHash},
		{"empty key", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$", ErrMalformedHash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Verify("1234", tt.encoded)
			assert.False(t, ok)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
