package main

import (
	"errors"
	"strings"

	"github.com/dropDatabas3/trustcore/internal/principal"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (c *cli) principalCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "principal", Short: "Alta de principals y hashes de password"}

	hash := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Imprime el hash bcrypt (para storage.users[].password_hash)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := principal.HashPassword(args[0])
			if err != nil {
				return err
			}
			c.printf("%s\n", h)
			return nil
		},
	}

	var (
		id, username, password string
		roles, perms           []string
		grants                 []string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Crea o actualiza un principal en Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if username == "" || password == "" {
				return errors.New("--username y --password son obligatorios")
			}
			if err := c.cfg.Auth.PasswordPolicy.Check(password); err != nil {
				return err
			}
			if id == "" {
				id = uuid.NewString()
			}
			h, err := principal.HashPassword(password)
			if err != nil {
				return err
			}

			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			rec := principal.Record{
				Attrs:        principal.Attrs{ID: id, Username: username, Roles: roles, Permissions: perms},
				PasswordHash: h,
			}
			if err := st.Upsert(cmd.Context(), rec); err != nil {
				return err
			}
			// role=perm1,perm2
			for _, g := range grants {
				role, list, ok := strings.Cut(g, "=")
				if !ok || role == "" {
					return errors.New("--grant espera role=perm1,perm2")
				}
				if err := st.GrantRolePermissions(cmd.Context(), role, strings.Split(list, ",")...); err != nil {
					return err
				}
			}
			c.printf("principal %s (%s) guardado\n", username, id)
			return nil
		},
	}
	add.Flags().StringVar(&id, "id", "", "id del principal (default uuid)")
	add.Flags().StringVar(&username, "username", "", "username (único)")
	add.Flags().StringVar(&password, "password", "", "password en claro; se guarda el hash bcrypt")
	add.Flags().StringSliceVar(&roles, "role", nil, "roles (repetible o separados por coma)")
	add.Flags().StringSliceVar(&perms, "perm", nil, "permisos directos")
	add.Flags().StringArrayVar(&grants, "grant", nil, "permisos de un rol: role=perm1,perm2")

	cmd.AddCommand(hash, add)
	return cmd
}
