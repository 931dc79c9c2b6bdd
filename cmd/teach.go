package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/siteqa/pkg/scraper"
)

var teachCmd = &cobra.Command{
	Use:   "teach <website>",
	Short: "Store a custom question/answer pair for a website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question, _ := cmd.Flags().GetString("question")
		answer, _ := cmd.Flags().GetString("answer")

		a, err := buildApp(cmd.Context(), cfg, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		qa, err := a.indexer.Teach(cmd.Context(), scraper.NormalizeWebsite(args[0]), question, answer)
		if err != nil {
			return err
		}
		color.Green("✓ Stored %s\n", qa.ID)
		return nil
	},
}

func init() {
	f := teachCmd.Flags()
	f.StringP("question", "q", "", "question to teach")
	f.StringP("answer", "a", "", "answer to return for the question")
	_ = teachCmd.MarkFlagRequired("question")
	_ = teachCmd.MarkFlagRequired("answer")
	rootCmd.AddCommand(teachCmd)
}
