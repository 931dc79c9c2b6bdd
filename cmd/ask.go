package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xhad/siteqa/pkg/scraper"
)

var askCmd = &cobra.Command{
	Use:   "ask <website> <question>",
	Short: "Answer a single question about a website",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		answer, err := a.orchestrator.Answer(cmd.Context(), strings.Join(args[1:], " "), scraper.NormalizeWebsite(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
