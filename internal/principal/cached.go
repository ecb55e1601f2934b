package principal

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedDirectory cachea lookups de un Directory por username e id.
// Las escrituras de MFA pasan al directorio subyacente e invalidan la entrada.
type CachedDirectory struct {
	inner Directory
	c     *gocache.Cache
}

func NewCachedDirectory(inner Directory, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedDirectory{inner: inner, c: gocache.New(ttl, 2*ttl)}
}

func userKey(username string) string { return "u:" + username }
func idKey(id string) string         { return "id:" + id }

func (d *CachedDirectory) FindByUsername(ctx context.Context, username string) (*Principal, error) {
	if v, ok := d.c.Get(userKey(username)); ok {
		return v.(*Principal), nil
	}
	p, err := d.inner.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	d.store(p)
	return p, nil
}

func (d *CachedDirectory) FindByID(ctx context.Context, id string) (*Principal, error) {
	if v, ok := d.c.Get(idKey(id)); ok {
		return v.(*Principal), nil
	}
	p, err := d.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.store(p)
	return p, nil
}

// Invalidate descarta la entrada del principal (por id y username).
func (d *CachedDirectory) Invalidate(id string) {
	if v, ok := d.c.Get(idKey(id)); ok {
		d.c.Delete(userKey(v.(*Principal).Username()))
	}
	d.c.Delete(idKey(id))
}

func (d *CachedDirectory) store(p *Principal) {
	d.c.SetDefault(userKey(p.Username()), p)
	d.c.SetDefault(idKey(p.ID()), p)
}

// CheckPassword no se cachea.
func (d *CachedDirectory) CheckPassword(ctx context.Context, username, password string) (*Principal, error) {
	cc, ok := d.inner.(CredentialChecker)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return cc.CheckPassword(ctx, username, password)
}

func (d *CachedDirectory) PutMFA(ctx context.Context, principalID, secret string) error {
	ms, ok := d.inner.(MFAStore)
	if !ok {
		return ErrMFAUnsupported
	}
	defer d.Invalidate(principalID)
	return ms.PutMFA(ctx, principalID, secret)
}

func (d *CachedDirectory) GetMFA(ctx context.Context, principalID string) (*MFAEnrollment, error) {
	ms, ok := d.inner.(MFAStore)
	if !ok {
		return nil, ErrMFAUnsupported
	}
	return ms.GetMFA(ctx, principalID)
}

func (d *CachedDirectory) ConfirmMFA(ctx context.Context, principalID string, at time.Time) error {
	ms, ok := d.inner.(MFAStore)
	if !ok {
		return ErrMFAUnsupported
	}
	defer d.Invalidate(principalID)
	return ms.ConfirmMFA(ctx, principalID, at)
}

var (
	_ Directory         = (*CachedDirectory)(nil)
	_ CredentialChecker = (*CachedDirectory)(nil)
	_ MFAStore          = (*CachedDirectory)(nil)
)
