package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// params baratos para tests
var fast = Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify_Argon2id(t *testing.T) {
	h, err := Hash(fast, "s3cret")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(h, "$argon2id$v=19$m=1024,t=1,p=1$"))

	require.True(t, Verify("s3cret", h))
	require.False(t, Verify("s3creT", h))

	h2, err := Hash(fast, "s3cret")
	require.NoError(t, err)
	require.NotEqual(t, h, h2, "salt aleatorio")

	_, err = Hash(fast, "")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerify_Bcrypt(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, Verify("hunter2", string(h)))
	require.False(t, Verify("hunter3", string(h)))
}

func TestVerify_Malformed(t *testing.T) {
	h, err := Hash(fast, "pw")
	require.NoError(t, err)
	parts := strings.Split(h, "$")

	for _, bad := range []string{
		"",
		"plain-text",
		"$argon2id$v=19$m=1024,t=1,p=1$only-salt",
		strings.Join([]string{"", "argon2id", "v=18", parts[3], parts[4], parts[5]}, "$"),
		strings.Join([]string{"", "argon2id", "v=19", "m=x", parts[4], parts[5]}, "$"),
		strings.Join([]string{"", "argon2id", "v=19", parts[3], "!!", parts[5]}, "$"),
		strings.Join([]string{"", "argon2id", "v=19", parts[3], parts[4], ""}, "$"),
	} {
		require.False(t, Verify("pw", bad), bad)
	}
}

func TestPolicy(t *testing.T) {
	p := Policy{MinLength: 8, RequireUpper: true, RequireDigit: true, RequireSymbol: true}
	require.NoError(t, p.Check("Secr3t!pw"))

	err := p.Check("short")
	require.ErrorIs(t, err, ErrWeakPassword)
	require.Contains(t, err.Error(), "too_short,missing_upper,missing_digit,missing_symbol")

	require.NoError(t, Policy{}.Check(""))
}
