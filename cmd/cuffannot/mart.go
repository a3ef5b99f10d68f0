package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agegroup/cuffannot/internal/biomart"
)

func newMartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mart",
		Short: "Explore the BioMart annotation backend",
		Long: `List the marts, datasets, filters and attributes the configured BioMart
service offers, to pick values for mart.mart, mart.dataset, mart.filter and
the attribute lists.`,
		Example: `  cuffannot mart marts
  cuffannot mart datasets
  cuffannot mart filters
  cuffannot mart attributes`,
	}

	cmd.AddCommand(newMartMartsCmd())
	cmd.AddCommand(newMartDatasetsCmd())
	cmd.AddCommand(newMartFiltersCmd())
	cmd.AddCommand(newMartAttributesCmd())

	return cmd
}

func martClient() *biomart.HTTPClient {
	return biomart.New(cfg.Mart.BaseURL, cfg.Mart.Mart, cfg.Mart.Dataset)
}

func newMartMartsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "marts",
		Short: "List available marts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			marts, err := martClient().ListMarts(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range marts {
				fmt.Printf("%s\t%s\n", m.Name, m.DisplayName)
			}
			return nil
		},
	}
}

func newMartDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List datasets for the configured mart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := martClient().ListDatasets(cmd.Context())
			if err != nil {
				return err
			}
			printTSV(rows)
			return nil
		},
	}
}

func newMartFiltersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List filters for the configured dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := martClient().ListFilters(cmd.Context())
			if err != nil {
				return err
			}
			printTSV(rows)
			return nil
		},
	}
}

func newMartAttributesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attributes",
		Short: "List attributes for the configured dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := martClient().ListAttributes(cmd.Context())
			if err != nil {
				return err
			}
			printTSV(rows)
			return nil
		},
	}
}

func printTSV(rows [][]string) {
	for _, cells := range rows {
		fmt.Println(strings.Join(cells, "\t"))
	}
}
