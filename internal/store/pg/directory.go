package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/jackc/pgx/v5"
)

func (s *Store) FindByUsername(ctx context.Context, username string) (*principal.Principal, error) {
	p, _, err := s.load(ctx, `SELECT id, username, password_hash FROM principal WHERE username = $1`, username)
	return p, err
}

func (s *Store) FindByID(ctx context.Context, id string) (*principal.Principal, error) {
	p, _, err := s.load(ctx, `SELECT id, username, password_hash FROM principal WHERE id = $1`, id)
	return p, err
}

func (s *Store) CheckPassword(ctx context.Context, username, password string) (*principal.Principal, error) {
	p, hash, err := s.load(ctx, `SELECT id, username, password_hash FROM principal WHERE username = $1`, username)
	if err != nil && !errors.Is(err, principal.ErrPrincipalNotFound) {
		return nil, err
	}
	if !principal.VerifyPassword(hash, password) || p == nil {
		return nil, principal.ErrInvalidCredentials
	}
	return p, nil
}

// load resuelve la fila principal más roles, permisos efectivos y MFA confirmado.
func (s *Store) load(ctx context.Context, q string, arg string) (*principal.Principal, string, error) {
	var a principal.Attrs
	var hash string
	if err := s.pool.QueryRow(ctx, q, arg).Scan(&a.ID, &a.Username, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", principal.ErrPrincipalNotFound
		}
		return nil, "", err
	}

	var err error
	if a.Roles, err = s.queryStrings(ctx, `
SELECT role FROM principal_role WHERE principal_id = $1 ORDER BY role;`, a.ID); err != nil {
		return nil, "", err
	}
	if a.Permissions, err = s.queryStrings(ctx, `
SELECT rp.permission
FROM principal_role pr
JOIN role_permission rp ON rp.role = pr.role
WHERE pr.principal_id = $1
UNION
SELECT pp.permission FROM principal_permission pp WHERE pp.principal_id = $1
ORDER BY 1;`, a.ID); err != nil {
		return nil, "", err
	}

	err = s.pool.QueryRow(ctx, `
SELECT secret FROM principal_mfa_totp
WHERE principal_id = $1 AND confirmed_at IS NOT NULL`, a.ID).Scan(&a.MFASecret)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}
	return principal.New(a), hash, nil
}

func (s *Store) queryStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Upsert crea o reemplaza un principal con sus roles y permisos directos (CLI / seeds).
func (s *Store) Upsert(ctx context.Context, r principal.Record) error {
	if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Username) == "" {
		return errors.New("pg: id and username are required")
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO principal (id, username, password_hash) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, password_hash = EXCLUDED.password_hash`,
			r.ID, r.Username, r.PasswordHash); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM principal_role WHERE principal_id = $1`, r.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM principal_permission WHERE principal_id = $1`, r.ID); err != nil {
			return err
		}
		for _, role := range r.Roles {
			if _, err := tx.Exec(ctx, `INSERT INTO principal_role (principal_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`, r.ID, role); err != nil {
				return err
			}
		}
		for _, perm := range r.Permissions {
			if _, err := tx.Exec(ctx, `INSERT INTO principal_permission (principal_id, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING`, r.ID, perm); err != nil {
				return err
			}
		}
		return nil
	})
}

// GrantRolePermissions asigna permisos a un rol (idempotente).
func (s *Store) GrantRolePermissions(ctx context.Context, role string, perms ...string) error {
	batch := &pgx.Batch{}
	for _, p := range perms {
		batch.Queue(`INSERT INTO role_permission (role, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING`, role, p)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

var (
	_ principal.Directory         = (*Store)(nil)
	_ principal.CredentialChecker = (*Store)(nil)
)
