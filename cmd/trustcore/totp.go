package main

import (
	"github.com/dropDatabas3/trustcore/internal/security/totp"
	"github.com/spf13/cobra"
)

func (c *cli) totpCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "totp", Short: "Secretos, URIs y códigos TOTP (usa mfa.totp)"}

	var label string
	secret := &cobra.Command{
		Use:   "secret",
		Short: "Genera un secreto nuevo y su URI otpauth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := totp.New(c.cfg.MFA.TOTP)
			if err != nil {
				return err
			}
			s, err := e.GenerateSecret()
			if err != nil {
				return err
			}
			c.printf("secret: %s\nuri:    %s\n", s, e.ProvisioningURI(s.String(), label, ""))
			return nil
		},
	}
	secret.Flags().StringVar(&label, "label", "user", "cuenta que muestra la app autenticadora")

	var uriLabel string
	uri := &cobra.Command{
		Use:   "uri <secret>",
		Short: "Imprime la URI otpauth de un secreto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := totp.New(c.cfg.MFA.TOTP)
			if err != nil {
				return err
			}
			c.printf("%s\n", e.ProvisioningURI(args[0], uriLabel, ""))
			return nil
		},
	}
	uri.Flags().StringVar(&uriLabel, "label", "user", "cuenta que muestra la app autenticadora")

	code := &cobra.Command{
		Use:   "code <secret>",
		Short: "Imprime el código vigente",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := totp.New(c.cfg.MFA.TOTP)
			if err != nil {
				return err
			}
			v, err := e.CodeAt(args[0], now())
			if err != nil {
				return err
			}
			c.printf("%s\n", v)
			return nil
		},
	}

	cmd.AddCommand(secret, uri, code)
	return cmd
}
