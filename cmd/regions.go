package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sjsage522/weibosearch/config"
	"sjsage522/weibosearch/internal/planner"
)

// NewRegionsCmd creates the regions command
func NewRegionsCmd() *cobra.Command {
	var (
		regionFile string
		cities     bool
	)
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List the regions usable with --region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if regionFile == "" {
				regionFile = config.LoadConfig().RegionFile
			}
			tree, err := planner.LoadRegionTree(regionFile)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REGION\tCODE\tCITIES")
			for _, r := range tree.Regions() {
				list := fmt.Sprint(len(r.Cities))
				if cities && len(r.Cities) > 0 {
					names := make([]string, len(r.Cities))
					for i, c := range r.Cities {
						names[i] = c.Name + ":" + c.Code
					}
					list = strings.Join(names, " ")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Code, list)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&regionFile, "region-file", "", "YAML region tree (overrides REGION_FILE)")
	cmd.Flags().BoolVar(&cities, "cities", false, "List the cities of every region")
	return cmd
}
