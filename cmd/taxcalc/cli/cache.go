package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamxdv30/TheOmnitool-sub000/internal/platform/cache"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the service's result cache",
	}

	var addr string
	bump := &cobra.Command{
		Use:   "bump",
		Short: "Invalidate every cached result by bumping the cache version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := cache.New(cmd.Context(), addr)
			if err != nil {
				return report(cmd, err)
			}
			defer client.Close()

			ver, err := cache.NewVersioned(client, "taxengine", 0).Bump(cmd.Context())
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cache version is now %d\n", ver)
			return nil
		},
	}
	bump.Flags().StringVar(&addr, "redis", "127.0.0.1:6379", "Redis address")
	cmd.AddCommand(bump)
	return cmd
}
