// Command trustcore corre el servicio y agrupa herramientas de operación:
// tokens, TOTP, cifrado de secretos, claves, migraciones y principals.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/dropDatabas3/trustcore/internal/config"
	"github.com/dropDatabas3/trustcore/internal/observability/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// now es reemplazable en tests.
var now = time.Now

// cli mantiene el estado compartido entre subcomandos.
type cli struct {
	configPath string
	envFile    string
	cfg        *config.Config
	out        io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	_ = logger.Sync()
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "trustcore",
		Short:         "Tokens, MFA TOTP y autorización por permisos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.configPath, "config", envOr("TRUSTCORE_CONFIG", ""), "ruta a config.yaml (env TRUSTCORE_CONFIG)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "archivo .env a cargar si existe")

	root.AddCommand(
		c.serveCmd(),
		c.tokenCmd(),
		c.totpCmd(),
		c.cipherCmd(),
		c.keysCmd(),
		c.migrateCmd(),
		c.principalCmd(),
	)
	return root
}

// load: .env (si existe) -> config.yaml -> env -> logger.
func (c *cli) load() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", c.envFile, err)
		}
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	env := "dev"
	if cfg.IsProd() {
		env = "prod"
	}
	logger.Init(logger.Config{Env: env, Level: cfg.App.LogLevel, ServiceName: "trustcore"})
	return nil
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
