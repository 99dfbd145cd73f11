package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePIN(t *testing.T) {
	t.Parallel() // Enable parallel execution

	testCases := []struct {
		name    string
		pin     string
		wantErr bool
	}{
		{name: "four digits", pin: "1234"},
		{name: "leading zeros", pin: "0000"},
		{name: "too short", pin: "123", wantErr: true},
		{name: "too long", pin: "12345", wantErr: true},
		{name: "letter inside", pin: "12a4", wantErr: true},
		{name: "whitespace", pin: "12 4", wantErr: true},
		{name: "empty", pin: "", wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePIN(tc.pin)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPIN)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel() // Enable parallel execution

	hasher := NewBcryptHasher()

	hash, err := hasher.Hash("1234")
	require.NoError(t, err)
	require.NotEqual(t, "1234", hash, "hash must not equal the plaintext")

	assert.True(t, hasher.Verify("1234", hash))
	assert.False(t, hasher.Verify("4321", hash))
	assert.False(t, hasher.Verify("1234", "not-a-bcrypt-hash"))

	// bcrypt salts: hashing the same input twice yields different digests.
	again, err := hasher.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestDigestNumber(t *testing.T) {
	t.Parallel() // Enable parallel execution

	const number = "4111111111111111"

	// Deterministic: the digest is the persisted lookup key, so repeated
	// calls must agree.
	assert.Equal(t, DigestNumber(number), DigestNumber(number))
	assert.NotEqual(t, DigestNumber(number), DigestNumber("4111111111111112"))
	assert.Len(t, DigestNumber(number), 64)
}

func TestMaskNumber(t *testing.T) {
	t.Parallel() // Enable parallel execution

	assert.Equal(t, "**** **** **** 1111", MaskNumber("4111111111111111"))
	assert.Equal(t, "**** **** **** 9876", MaskNumber("1234567898769876"))
	// Degenerate short input passes through rather than panicking.
	assert.Equal(t, "123", MaskNumber("123"))
}

func TestRandomNumberSource(t *testing.T) {
	t.Parallel() // Enable parallel execution

	src := NewRandomNumberSource()

	for _, n := range []int{3, 16, 26} {
		digits := src.Digits(n)
		require.Len(t, digits, n)
		for i := 0; i < len(digits); i++ {
			if digits[i] < '0' || digits[i] > '9' {
				t.Errorf("Digits(%d) produced non-digit byte %q at index %d", n, digits[i], i)
			}
		}
	}
}
