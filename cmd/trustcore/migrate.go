package main

import (
	"context"
	"errors"

	"github.com/dropDatabas3/trustcore/internal/store/pg"
	"github.com/spf13/cobra"
)

// openStore abre el pool con storage.dsn; requiere storage.driver=postgres.
func (c *cli) openStore(ctx context.Context) (*pg.Store, error) {
	switch c.cfg.Storage.Driver {
	case "postgres", "pg":
	default:
		return nil, errors.New("requiere storage.driver=postgres (STORAGE_DRIVER)")
	}
	if c.cfg.Storage.DSN == "" {
		return nil, errors.New("falta storage.dsn (STORAGE_DSN)")
	}
	return pg.New(ctx, c.cfg.Storage.DSN, pg.PoolConfig{
		MaxConns:        c.cfg.Storage.Postgres.MaxConns,
		MinConns:        c.cfg.Storage.Postgres.MinConns,
		ConnMaxLifetime: c.cfg.Storage.Postgres.ConnMaxLifetime,
	})
}

func (c *cli) migrateCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Aplica las migraciones SQL embebidas",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.Migrate(cmd.Context(), args[0], steps)
			if err != nil {
				return err
			}
			c.printf("%d migraciones aplicadas (%s)\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "cantidad de archivos a aplicar (0 = todos)")
	return cmd
}
