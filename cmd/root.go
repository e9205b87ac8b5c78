// Package cmd wires configuration, services and the crawl worker into
// the weibosearch command line.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weibosearch",
		Short: "Crawl Weibo search results for keywords",
		Long: `weibosearch crawls s.weibo.com search results for a list of keywords.

Crowded searches are split by day, hour and city until every slice fits in
the pages the site is willing to show. Settings come from the environment
(or a .env file); flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewHotCmd())
	cmd.AddCommand(NewRegionsCmd())
	return cmd
}
