package principal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Record es un principal más su hash de password, tal como se siembra en memoria.
type Record struct {
	Attrs
	PasswordHash string
}

// MemoryDirectory implementa Directory, CredentialChecker y MFAStore en memoria.
type MemoryDirectory struct {
	mu     sync.RWMutex
	byID   map[string]Record
	byName map[string]string // username -> id
	mfa    map[string]MFAEnrollment
}

func NewMemoryDirectory(records ...Record) (*MemoryDirectory, error) {
	d := &MemoryDirectory{
		byID:   map[string]Record{},
		byName: map[string]string{},
		mfa:    map[string]MFAEnrollment{},
	}
	for _, r := range records {
		if err := d.Add(r); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add registra un principal. id y username deben ser únicos.
func (d *MemoryDirectory) Add(r Record) error {
	if r.ID == "" || r.Username == "" {
		return fmt.Errorf("principal: id and username are required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byID[r.ID]; ok {
		return fmt.Errorf("principal: duplicate id %q", r.ID)
	}
	if _, ok := d.byName[r.Username]; ok {
		return fmt.Errorf("principal: duplicate username %q", r.Username)
	}
	d.byID[r.ID] = r
	d.byName[r.Username] = r.ID
	if r.MFASecret != "" {
		at := time.Unix(0, 0).UTC()
		d.mfa[r.ID] = MFAEnrollment{Secret: r.MFASecret, ConfirmedAt: &at}
	}
	return nil
}

func (d *MemoryDirectory) FindByUsername(ctx context.Context, username string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byName[username]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return d.build(id), nil
}

func (d *MemoryDirectory) FindByID(ctx context.Context, id string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.byID[id]; !ok {
		return nil, ErrPrincipalNotFound
	}
	return d.build(id), nil
}

func (d *MemoryDirectory) CheckPassword(ctx context.Context, username, password string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	id, ok := d.byName[username]
	var hash string
	if ok {
		hash = d.byID[id].PasswordHash
	}
	d.mu.RUnlock()

	if !VerifyPassword(hash, password) || !ok {
		return nil, ErrInvalidCredentials
	}
	return d.FindByID(ctx, id)
}

func (d *MemoryDirectory) PutMFA(ctx context.Context, principalID, secret string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byID[principalID]; !ok {
		return ErrPrincipalNotFound
	}
	d.mfa[principalID] = MFAEnrollment{Secret: secret}
	return nil
}

func (d *MemoryDirectory) GetMFA(ctx context.Context, principalID string) (*MFAEnrollment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.byID[principalID]; !ok {
		return nil, ErrPrincipalNotFound
	}
	e, ok := d.mfa[principalID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (d *MemoryDirectory) ConfirmMFA(ctx context.Context, principalID string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.mfa[principalID]
	if !ok {
		return ErrPrincipalNotFound
	}
	e.ConfirmedAt = &at
	d.mfa[principalID] = e
	return nil
}

// build asume d.mu tomado.
func (d *MemoryDirectory) build(id string) *Principal {
	a := d.byID[id].Attrs
	a.MFASecret = ""
	if e, ok := d.mfa[id]; ok && e.Confirmed() {
		a.MFASecret = e.Secret
	}
	return New(a)
}

var (
	_ Directory         = (*MemoryDirectory)(nil)
	_ CredentialChecker = (*MemoryDirectory)(nil)
	_ MFAStore          = (*MemoryDirectory)(nil)
)
