package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sjsage522/weibosearch/config"
	"sjsage522/weibosearch/internal/hotsearch"
	"sjsage522/weibosearch/internal/planner"
	"sjsage522/weibosearch/logger"
	"sjsage522/weibosearch/services/fetcher"
)

// NewHotCmd creates the hot command
func NewHotCmd() *cobra.Command {
	var (
		flags   searchFlags
		maxHot  int
		listOut bool
	)
	cmd := &cobra.Command{
		Use:   "hot",
		Short: "Search today's posts for every topic on the hot list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadConfig()
			flags.apply(cmd, cfg)
			if maxHot > 0 {
				cfg.MaxHotKeywords = maxHot
			}

			// the hot list is a different site, it gets no cookie
			f, err := fetcher.New(fetcher.Options{ProxyURL: cfg.ProxyURL, Timeout: 15 * time.Second})
			if err != nil {
				return err
			}
			keywords, err := hotsearch.NewScraper(f, cfg.HotSearchURL, cfg.MaxHotKeywords).Keywords(cmd.Context())
			if err != nil {
				return err
			}
			if listOut {
				for _, kw := range keywords {
					fmt.Fprintln(cmd.OutOrStdout(), kw)
				}
				return nil
			}

			today := time.Now().In(planner.ChinaStandardTime).Format(config.DateLayout)
			cfg.StartDate, cfg.EndDate = today, today
			logger.Info("Searching %d hot topics for %s", len(keywords), today)
			return runSearch(cmd.Context(), cmd.OutOrStdout(), cfg, keywords)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&maxHot, "max-hot", 0, "Hot list rows to read (overrides MAX_HOT_KEYWORDS)")
	cmd.Flags().BoolVar(&listOut, "list", false, "Print the hot topics and exit")
	return cmd
}
