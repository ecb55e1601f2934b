package main

import (
	"errors"

	"github.com/dropDatabas3/trustcore/internal/security/cipher"
	"github.com/spf13/cobra"
)

func (c *cli) box() (*cipher.Box, error) {
	if c.cfg.Security.Cipher.Key == "" {
		return nil, errors.New("falta security.cipher.key (CIPHER_KEY)")
	}
	return cipher.NewBox(c.cfg.Security.Cipher.Key, cipher.Mode(c.cfg.Security.Cipher.Mode))
}

func (c *cli) cipherCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cipher", Short: "Cifra/descifra secretos con security.cipher (CIPHER_KEY)"}

	encrypt := &cobra.Command{
		Use:   "encrypt <plaintext>",
		Short: "Cifra un valor (p.ej. un secreto TOTP para storage.users)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.box()
			if err != nil {
				return err
			}
			out, err := b.Encrypt(args[0])
			if err != nil {
				return err
			}
			c.printf("%s\n", out)
			return nil
		},
	}
	decrypt := &cobra.Command{
		Use:   "decrypt <ciphertext>",
		Short: "Descifra un valor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.box()
			if err != nil {
				return err
			}
			out, err := b.Decrypt(args[0])
			if err != nil {
				return err
			}
			c.printf("%s\n", out)
			return nil
		},
	}

	cmd.AddCommand(encrypt, decrypt)
	return cmd
}
