package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/trustcore/internal/jwt"
	"github.com/spf13/cobra"
)

func (c *cli) provider(ttl time.Duration) (*jwt.Provider, error) {
	if ttl <= 0 {
		ttl = c.cfg.JWT.TTL
	}
	return jwt.NewProvider([]byte(c.cfg.JWT.Secret), ttl, jwt.WithIssuer(c.cfg.JWT.Issuer))
}

func (c *cli) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Emite e inspecciona access tokens (usa JWT_SECRET)"}

	var (
		ttl    time.Duration
		claims []string
	)
	issue := &cobra.Command{
		Use:   "issue <subject>",
		Short: "Emite un token para subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.provider(ttl)
			if err != nil {
				return err
			}
			extra := map[string]any{}
			for _, kv := range claims {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("claim %q: se espera key=value", kv)
				}
				extra[k] = v
			}
			tok, err := p.Issue(args[0], extra)
			if err != nil {
				return err
			}
			c.printf("%s\n", tok.Raw)
			return nil
		},
	}
	issue.Flags().DurationVar(&ttl, "ttl", 0, "duración del token (default jwt.ttl)")
	issue.Flags().StringArrayVar(&claims, "claim", nil, "claim extra key=value (repetible)")

	inspect := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Valida un token e imprime sus claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.provider(0)
			if err != nil {
				return err
			}
			cl, err := p.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			out := map[string]any{
				"sub": cl.Subject,
				"jti": cl.ID,
				"iat": cl.IssuedAt.UTC().Format(time.RFC3339),
				"exp": cl.ExpiresAt.UTC().Format(time.RFC3339),
			}
			if cl.Issuer != "" {
				out["iss"] = cl.Issuer
			}
			for k, v := range cl.Extra {
				out[k] = v
			}
			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.AddCommand(issue, inspect)
	return cmd
}
