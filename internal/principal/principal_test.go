package principal

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func seed(t *testing.T) *MemoryDirectory {
	t.Helper()
	d, err := NewMemoryDirectory(
		Record{
			Attrs: Attrs{
				ID:          "u-1",
				Username:    "alice",
				Roles:       []string{"admin", "admin"},
				Permissions: []string{"users.read", "users.write", "", "users.read"},
			},
			PasswordHash: hash(t, "s3cret"),
		},
		Record{
			Attrs:        Attrs{ID: "u-2", Username: "bob", Permissions: []string{"users.read"}},
			PasswordHash: hash(t, "hunter2"),
		},
	)
	require.NoError(t, err)
	return d
}

func TestPrincipal_ReadOnly(t *testing.T) {
	p := New(Attrs{ID: "1", Username: "alice", Roles: []string{"r"}, Permissions: []string{"a", "b", "a"}})

	require.Equal(t, []string{"a", "b"}, p.Permissions())
	perms := p.Permissions()
	perms[0] = "zzz"
	roles := p.Roles()
	roles[0] = "zzz"

	require.Equal(t, []string{"a", "b"}, p.Permissions())
	require.Equal(t, []string{"r"}, p.Roles())
	require.True(t, p.Has("a"))
	require.False(t, p.Has("A"))
	require.False(t, p.Has("zzz"))
	require.False(t, p.MFAEnabled())
}

func TestMemoryDirectory_Find(t *testing.T) {
	ctx := context.Background()
	d := seed(t)

	p, err := d.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "u-1", p.ID())
	require.Equal(t, []string{"admin"}, p.Roles())
	require.Equal(t, []string{"users.read", "users.write"}, p.Permissions())

	p, err = d.FindByID(ctx, "u-2")
	require.NoError(t, err)
	require.Equal(t, "bob", p.Username())

	_, err = d.FindByUsername(ctx, "Alice")
	require.ErrorIs(t, err, ErrPrincipalNotFound)
	_, err = d.FindByID(ctx, "nope")
	require.ErrorIs(t, err, ErrPrincipalNotFound)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.FindByUsername(cctx, "alice")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryDirectory_AddValidation(t *testing.T) {
	d := seed(t)
	require.Error(t, d.Add(Record{Attrs: Attrs{ID: "u-1", Username: "carol"}}))
	require.Error(t, d.Add(Record{Attrs: Attrs{ID: "u-9", Username: "alice"}}))
	require.Error(t, d.Add(Record{Attrs: Attrs{Username: "x"}}))
}

func TestMemoryDirectory_CheckPassword(t *testing.T) {
	ctx := context.Background()
	d := seed(t)

	p, err := d.CheckPassword(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "u-1", p.ID())

	_, err = d.CheckPassword(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = d.CheckPassword(ctx, "ghost", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMemoryDirectory_MFALifecycle(t *testing.T) {
	ctx := context.Background()
	d := seed(t)

	e, err := d.GetMFA(ctx, "u-1")
	require.NoError(t, err)
	require.Nil(t, e)

	require.NoError(t, d.PutMFA(ctx, "u-1", "JBSWY3DPEHPK3PXP"))
	e, err = d.GetMFA(ctx, "u-1")
	require.NoError(t, err)
	require.False(t, e.Confirmed())

	p, err := d.FindByID(ctx, "u-1")
	require.NoError(t, err)
	require.False(t, p.MFAEnabled(), "unconfirmed secret must not enable mfa")

	require.NoError(t, d.ConfirmMFA(ctx, "u-1", time.Now()))
	p, err = d.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, p.MFAEnabled())
	require.Equal(t, "JBSWY3DPEHPK3PXP", p.MFASecret())

	require.ErrorIs(t, d.PutMFA(ctx, "ghost", "x"), ErrPrincipalNotFound)
	require.ErrorIs(t, d.ConfirmMFA(ctx, "u-2", time.Now()), ErrPrincipalNotFound)
}

func TestToProfile(t *testing.T) {
	require.Nil(t, ToProfile(nil))

	p := New(Attrs{ID: "1", Username: "alice", MFASecret: "SECRET"})
	prof := ToProfile(p)
	require.Equal(t, &Profile{
		ID:          "1",
		Username:    "alice",
		Roles:       []string{},
		Permissions: []string{},
		MFAEnabled:  true,
	}, prof)
}

type countingDirectory struct {
	*MemoryDirectory
	calls atomic.Int32
}

func (c *countingDirectory) FindByUsername(ctx context.Context, username string) (*Principal, error) {
	c.calls.Add(1)
	return c.MemoryDirectory.FindByUsername(ctx, username)
}

func (c *countingDirectory) FindByID(ctx context.Context, id string) (*Principal, error) {
	c.calls.Add(1)
	return c.MemoryDirectory.FindByID(ctx, id)
}

func TestCachedDirectory(t *testing.T) {
	ctx := context.Background()
	inner := &countingDirectory{MemoryDirectory: seed(t)}
	d := NewCachedDirectory(inner, time.Minute)

	p1, err := d.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	p2, err := d.FindByID(ctx, "u-1")
	require.NoError(t, err)
	require.Same(t, p1, p2)
	require.EqualValues(t, 1, inner.calls.Load())

	_, err = d.FindByUsername(ctx, "ghost")
	require.ErrorIs(t, err, ErrPrincipalNotFound)
	_, err = d.FindByUsername(ctx, "ghost")
	require.ErrorIs(t, err, ErrPrincipalNotFound)
	require.EqualValues(t, 3, inner.calls.Load())

	require.NoError(t, d.PutMFA(ctx, "u-1", "JBSWY3DPEHPK3PXP"))
	require.NoError(t, d.ConfirmMFA(ctx, "u-1", time.Now()))
	p3, err := d.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, p3.MFAEnabled())
	require.EqualValues(t, 4, inner.calls.Load())

	_, err = d.CheckPassword(ctx, "alice", "s3cret")
	require.NoError(t, err)
}

func TestCachedDirectory_WithoutMFAStore(t *testing.T) {
	ctx := context.Background()
	d := NewCachedDirectory(lookupOnly{}, time.Minute)
	require.ErrorIs(t, d.PutMFA(ctx, "x", "y"), ErrMFAUnsupported)
	_, err := d.CheckPassword(ctx, "a", "b")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

type lookupOnly struct{}

func (lookupOnly) FindByUsername(context.Context, string) (*Principal, error) {
	return nil, ErrPrincipalNotFound
}

func (lookupOnly) FindByID(context.Context, string) (*Principal, error) {
	return nil, ErrPrincipalNotFound
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)
	require.True(t, VerifyPassword(h, "pw"))
	require.False(t, VerifyPassword(h, "PW"))
	require.False(t, VerifyPassword("", "pw"))
}
