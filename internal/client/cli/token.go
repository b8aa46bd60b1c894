package cli

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/server/auth"
	gethcommon "github.com/luxfi/geth/common"
	"github.com/spf13/cobra"
)

// token is an operator command: it needs the server's JWT secret.
func tokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Mint an access token for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !gethcommon.IsHexAddress(args[0]) {
				return fmt.Errorf("invalid address %q", args[0])
			}

			key := []byte(secret)
			if secret == "" {
				s, err := GetSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Server secret")
				if err != nil {
					return err
				}
				key = s
				defer common.WipeByteArray(key)
			}

			tok, err := auth.GenerateToken(gethcommon.HexToAddress(args[0]), key, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "server JWT secret (prompted when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token validity")
	return cmd
}

// secret prints fresh key material for the server's -s / -k options.
func secretCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a random hex secret for server configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 16 {
				return fmt.Errorf("secret size must be at least 16 bytes, got %d", size)
			}
			s, err := common.MakeRandHexString(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "bytes", 32, "number of random bytes")
	return cmd
}
