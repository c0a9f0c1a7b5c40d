// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/thesis-sync/internal/config"
	"github.com/pdiddy/thesis-sync/internal/pipeline"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch, enrich and publish the collaboration datasets",
	Long: `Sync runs the whole pipeline once: it pages through the thesis listing,
keeps records with an external collaboration, resolves partners and
supervisors, aggregates the facets and organization directory, and
replaces the three artifacts in the output directory as a set.

A failed fetch or write leaves the previous artifacts in place and exits
non-zero.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("output-dir", "", "directory receiving the artifacts (default data)")
	syncCmd.Flags().Int("workers", 0, "records enriched concurrently (default 1)")
	syncCmd.Flags().Int("page-size", 0, "records requested per page (default 100)")
	syncCmd.Flags().Bool("no-geocode", false, "use only coordinates already attached to organizations")

	for key, flag := range map[string]string{
		"output.dir":     "output-dir",
		"workers":        "workers",
		"pure.page_size": "page-size",
	} {
		_ = viper.BindPFlag(key, syncCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if off, _ := cmd.Flags().GetBool("no-geocode"); off {
		viper.Set("geocode.enabled", false)
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	runner := pipeline.New(cfg, logger)
	defer runner.Close()

	res, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	s := res.Summary
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Run\t%s\n", res.RunID)
	fmt.Fprintf(w, "Records\t%d fetched over %d pages, %d with collaborations\n", s.Fetched, s.Pages, s.Candidates)
	fmt.Fprintf(w, "Projects\t%d included, %d excluded, %d failed\n", s.Included, s.Excluded, s.Failed)
	fmt.Fprintf(w, "Partners\t%d organizations\n", s.Organizations)
	fmt.Fprintf(w, "Lookups\t%d organizations, %d persons, %d cache hits, %d failed\n",
		s.OrgLookups, s.PersonLookups, s.CacheHits, s.LookupFailures)
	for _, a := range res.Artifacts {
		fmt.Fprintf(w, "Wrote\t%s (%d bytes)\n", a.Path, a.Bytes)
	}
	return w.Flush()
}
