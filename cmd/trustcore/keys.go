package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dropDatabas3/trustcore/internal/jwt"
	"github.com/dropDatabas3/trustcore/internal/util/atomicwrite"
	"github.com/spf13/cobra"
)

func (c *cli) keysCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "keys", Short: "Generación de secretos"}

	var (
		size    int
		envFile string
		envKey  string
	)
	gen := &cobra.Command{
		Use:   "gen-secret",
		Short: "Genera un secreto aleatorio (JWT_SECRET, CIPHER_KEY)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < jwt.MinSecretLen {
				return fmt.Errorf("--bytes debe ser >= %d", jwt.MinSecretLen)
			}
			raw := make([]byte, size)
			if _, err := rand.Read(raw); err != nil {
				return err
			}
			secret := base64.RawURLEncoding.EncodeToString(raw)
			if envFile == "" {
				c.printf("%s\n", secret)
				return nil
			}
			if err := atomicwrite.SetEnv(envFile, envKey, secret); err != nil {
				return err
			}
			c.printf("%s escrito en %s\n", envKey, envFile)
			return nil
		},
	}
	gen.Flags().IntVar(&size, "bytes", 48, "bytes aleatorios")
	gen.Flags().StringVar(&envFile, "write-env", "", "escribe el secreto en este .env en vez de imprimirlo")
	gen.Flags().StringVar(&envKey, "name", "JWT_SECRET", "variable a escribir con --write-env")

	cmd.AddCommand(gen)
	return cmd
}
