package pg

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/jackc/pgx/v5"
)

// PutMFA guarda (o reemplaza) un secreto sin confirmar.
func (s *Store) PutMFA(ctx context.Context, principalID, secret string) error {
	tag, err := s.pool.Exec(ctx, `
INSERT INTO principal_mfa_totp (principal_id, secret)
SELECT id, $2 FROM principal WHERE id = $1
ON CONFLICT (principal_id)
DO UPDATE SET secret = EXCLUDED.secret, confirmed_at = NULL, updated_at = now()`, principalID, secret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return principal.ErrPrincipalNotFound
	}
	return nil
}

// GetMFA retorna nil, nil si el principal existe pero no tiene enrolamiento.
func (s *Store) GetMFA(ctx context.Context, principalID string) (*principal.MFAEnrollment, error) {
	var (
		exists bool
		secret *string
		at     *time.Time
	)
	err := s.pool.QueryRow(ctx, `
SELECT true, m.secret, m.confirmed_at
FROM principal p
LEFT JOIN principal_mfa_totp m ON m.principal_id = p.id
WHERE p.id = $1`, principalID).Scan(&exists, &secret, &at)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, principal.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, nil
	}
	return &principal.MFAEnrollment{Secret: *secret, ConfirmedAt: at}, nil
}

func (s *Store) ConfirmMFA(ctx context.Context, principalID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE principal_mfa_totp SET confirmed_at = $2, updated_at = now() WHERE principal_id = $1`, principalID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return principal.ErrPrincipalNotFound
	}
	return nil
}

var _ principal.MFAStore = (*Store)(nil)
