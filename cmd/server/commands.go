package main

import (
	"fmt"

	"github.com/jrsteele09/go-oauth2-strategy/sessions"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oauth2-strategy",
		Short: "Reference host for the OAuth2 authorization code strategy",
		Long: `oauth2-strategy serves the authorization code flow for one configured
provider. Configuration is read from the environment (OAUTH2_*, REDIS_URL, PORT...).`,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "oauth2-strategy version %s\n" .Version}}`)

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckConfigCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	var noBanner bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), !noBanner)
		},
	}
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "Do not print the startup banner")
	return cmd
}

// newCheckConfigCmd validates the environment without starting the server.
func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the strategy configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			flowConfig, err := buildFlowConfig(cmd.Context(), c)
			if err != nil {
				return err
			}
			store := sessions.NewInMemoryStore(c.GetFlowExpiry())
			defer store.Stop()
			fc, err := strategy.NewFlowController(flowConfig, store)
			if err != nil {
				return err
			}
			effective := fc.Config()
			fmt.Fprintf(cmd.OutOrStdout(), "strategy %q: authorize=%s token=%s request=%s callback=%s\n",
				effective.Name, effective.Endpoint.AuthURL, effective.Endpoint.TokenURL, effective.RequestPath(), effective.CallbackPath)
			return nil
		},
	}
}
