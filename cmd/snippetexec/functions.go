package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/snippetexec/analytics"
	"github.com/jonwraymond/snippetexec/exec"
)

var (
	queryFlag string
	limitFlag int
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List or search analytic functions",
	Long: `List the analytic functions available to snippets through analytics.call.

Examples:
  snippetexec functions
  snippetexec functions --query "rolling mean"`,
	Args: cobra.NoArgs,
	RunE: runFunctions,
}

func init() {
	functionsCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "Search query")
	functionsCmd.Flags().IntVar(&limitFlag, "limit", 10, "Maximum search results")
	rootCmd.AddCommand(functionsCmd)
}

func runFunctions(cmd *cobra.Command, _ []string) error {
	engine, err := exec.New(exec.Options{})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDESCRIPTION\tTAGS")
	if queryFlag == "" {
		for _, t := range engine.Functions() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", analytics.FunctionID(t.Name), t.Description, strings.Join(t.Tags, ","))
		}
		return tw.Flush()
	}

	hits, err := engine.SearchFunctions(cmd.Context(), queryFlag, limitFlag)
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", h.ID, h.ShortDescription, strings.Join(h.Tags, ","))
	}
	return tw.Flush()
}
