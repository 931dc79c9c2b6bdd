package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/siteqa/pkg/scraper"
)

var chatCmd = &cobra.Command{
	Use:   "chat <website>",
	Short: "Chat interactively about a website",
	Args:  cobra.ExactArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().Bool("stream", true, "stream responses as they are generated")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	website := scraper.NormalizeWebsite(args[0])
	streaming, _ := cmd.Flags().GetBool("stream")

	a, err := buildApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	color.Cyan("\nChat with %s (type 'exit' to quit)", website)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}

		if streaming {
			fmt.Print("\n")
			assistantPrompt("Assistant: ")
			_, err := a.orchestrator.AnswerStream(ctx, query, website, func(chunk string) {
				assistantPrompt("%s", chunk)
			})
			fmt.Print("\n")
			if err != nil {
				color.Red("Error: %v\n", err)
			}
			continue
		}

		spinner := getSpinner("Generating response...")
		answer, err := a.orchestrator.Answer(ctx, query, website)
		_ = spinner.Finish()
		fmt.Print("\r")
		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		assistantPrompt("Assistant: %s\n", answer)
	}

	return scanner.Err()
}
