package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPasswordAsBcrypt("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPasswordHash(hash, "s3cret!"))
	assert.False(t, CheckPasswordHash(hash, "wrong"))
	assert.False(t, CheckPasswordHash("not-a-bcrypt-hash", "s3cret!"))

	// salted, two hashes of one password differ
	hash2, err := HashPasswordAsBcrypt("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestHashToken(t *testing.T) {
	d1 := HashToken("token-a")
	d2 := HashToken("token-a")
	d3 := HashToken("token-b")

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	assert.Len(t, d1, 64)
}

func TestEqualDigests(t *testing.T) {
	d := HashToken("token-a")
	assert.True(t, EqualDigests(d, HashToken("token-a")))
	assert.False(t, EqualDigests(d, HashToken("token-b")))
	assert.False(t, EqualDigests(d, ""))
}
