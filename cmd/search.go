package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sjsage522/weibosearch/config"
	"sjsage522/weibosearch/internal/planner"
	"sjsage522/weibosearch/internal/weibo"
	"sjsage522/weibosearch/logger"
	"sjsage522/weibosearch/services/worker"
)

// searchFlags are the flags overriding the environment configuration
type searchFlags struct {
	keywords      []string
	keywordFile   string
	start         string
	end           string
	regions       []string
	limit         int
	maxPerKeyword int
	sinks         []string
	fetchIP       bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVarP(&f.keywords, "keyword", "k", nil, "Keyword to search, repeatable (overrides KEYWORDS)")
	flags.StringVar(&f.keywordFile, "keyword-file", "", "File with one keyword per line (overrides KEYWORD_FILE)")
	flags.StringVar(&f.start, "start", "", "First day to search, YYYY-MM-DD (overrides START_DATE)")
	flags.StringVar(&f.end, "end", "", "Last day to search, YYYY-MM-DD (overrides END_DATE)")
	flags.StringSliceVarP(&f.regions, "region", "r", nil, "Region filter, repeatable (overrides REGION)")
	flags.IntVar(&f.limit, "limit", -1, "Records to accept across all keywords, 0 for no limit (overrides LIMIT_RESULT)")
	flags.IntVar(&f.maxPerKeyword, "max-per-keyword", -1, "Records to accept per keyword, 0 for no limit (overrides MAX_ITEMS_PER_KEYWORD)")
	flags.StringSliceVar(&f.sinks, "sink", nil, "Sink to write to, repeatable (overrides SINKS)")
	flags.BoolVar(&f.fetchIP, "fetch-ip", false, "Look up the IP region of every post (overrides FETCH_IP)")
}

func (f *searchFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if len(f.keywords) > 0 {
		cfg.Keywords = f.keywords
	}
	if f.keywordFile != "" {
		cfg.KeywordFile = f.keywordFile
	}
	if f.start != "" {
		cfg.StartDate = f.start
	}
	if f.end != "" {
		cfg.EndDate = f.end
	}
	if len(f.regions) > 0 {
		cfg.Regions = f.regions
	}
	if f.limit >= 0 {
		cfg.LimitResult = f.limit
	}
	if f.maxPerKeyword >= 0 {
		cfg.MaxItemsPerKeyword = f.maxPerKeyword
	}
	if len(f.sinks) > 0 {
		cfg.Sinks = f.sinks
	}
	if cmd.Flags().Changed("fetch-ip") {
		cfg.FetchIP = f.fetchIP
	}
}

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search keywords over a date range",
		Example: `  weibosearch search -k 迪丽热巴 --start 2024-01-01 --end 2024-01-03
  weibosearch search --keyword-file keywords.txt -r 北京 -r 上海 --sink csv --sink sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadConfig()
			flags.apply(cmd, cfg)

			keywords, err := cfg.ResolveKeywords()
			if err != nil {
				return err
			}
			return runSearch(cmd.Context(), cmd.OutOrStdout(), cfg, keywords)
		},
	}
	flags.register(cmd)
	return cmd
}

// runSearch crawls keywords with cfg and prints a summary to out.
// An interrupted run still prints what it collected.
func runSearch(ctx context.Context, out io.Writer, cfg *config.Config, keywords []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	tree, err := planner.LoadRegionTree(cfg.RegionFile)
	if err != nil {
		return err
	}

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	budget := planner.NewBudget(cfg.MaxItemsPerKeyword, cfg.LimitResult)
	p := planner.New(budget,
		planner.WithThreshold(cfg.FurtherThreshold),
		planner.WithRegions(tree),
	)
	search := weibo.SearchOptions{
		BaseURL:     cfg.SearchBaseURL,
		WeiboType:   cfg.WeiboType,
		ContainType: cfg.ContainType,
	}

	w := worker.NewWorker(p, search, services.Fetcher, weibo.NewParser(search), services.Sink, worker.Options{
		StartDate:   cfg.StartDate,
		EndDate:     cfg.EndDate,
		Regions:     cfg.Regions,
		Concurrency: cfg.ConcurrentKeywords,
		Retries:     cfg.FetchRetries,
		BlockWait:   cfg.RateLimitBlock,
	}).
		WithDedup(worker.NewDedup(services.Cache, 0)).
		WithFailureLog(services.FailureLog)
	if cfg.FetchIP {
		w.WithIPLookup(weibo.NewIPLookup(services.Fetcher, ""))
	}

	logger.Get().Info().
		Strs("keywords", keywords).
		Str("start", cfg.StartDate).
		Str("end", cfg.EndDate).
		Strs("sinks", cfg.Sinks).
		Str("environment", cfg.Environment).
		Msg("Starting search")

	stats, err := w.Run(ctx, keywords)
	printStats(out, stats)
	if stderrors.Is(err, context.Canceled) {
		logger.Get().Info().Msg("Search interrupted")
		return nil
	}
	return err
}

func printStats(out io.Writer, stats []worker.KeywordStats) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEYWORD\tPAGES\tACCEPTED\tDUPLICATES\tABANDONED\tELAPSED")
	for _, s := range stats {
		if s.Keyword == "" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			s.Keyword, s.Pages, s.Accepted, s.Duplicates, s.Abandoned, s.Elapsed.Round(time.Millisecond))
	}
	tw.Flush()
}
