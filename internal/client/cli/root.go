package cli

import (
	"context"

	"github.com/dmitrijs2005/fheregistry/internal/client/config"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Flags given on the command line win
// over the JSON config file, which wins over defaults.
func NewRootCmd() *cobra.Command {
	a := &App{config: &config.Config{}}
	a.config.LoadDefaults()
	flagCfg := *a.config

	root := &cobra.Command{
		Use:           "fheregistry",
		Short:         "Client for the encrypted message registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.ServerEndpointAddr = flagCfg.ServerEndpointAddr
			}
			if flags.Changed("token") {
				cfg.AccessToken = flagCfg.AccessToken
			}
			if flags.Changed("cache") {
				cfg.CachePath = flagCfg.CachePath
			}
			if flags.Changed("timeout") {
				cfg.RequestTimeout = flagCfg.RequestTimeout
			}
			a.config = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to JSON config file")
	pf.StringVarP(&flagCfg.ServerEndpointAddr, "server", "a", flagCfg.ServerEndpointAddr, "registry gRPC endpoint")
	pf.StringVarP(&flagCfg.AccessToken, "token", "t", "", "access token")
	pf.StringVar(&flagCfg.CachePath, "cache", flagCfg.CachePath, "local cache file")
	pf.DurationVar(&flagCfg.RequestTimeout, "timeout", flagCfg.RequestTimeout, "per-request timeout")

	root.AddCommand(
		tokenCmd(),
		secretCmd(),
		infoCmd(a),
		submitCmd(a),
		listCmd(a),
		countCmd(a),
		totalCmd(a),
		metaCmd(a),
		ownerCmd(a),
		showCmd(a),
		cachedCmd(a),
		watchCmd(a),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
