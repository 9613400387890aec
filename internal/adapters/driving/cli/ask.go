package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

var (
	askTopK    int
	askJSON    bool
	askFilters []string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered from stored documents",
	Long: `Retrieves the chunks most relevant to the question and synthesises
an answer grounded in them. Without matching content the answer is a
fixed fallback and no generation happens.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().StringArrayVarP(&askFilters, "filter", "f", nil, "metadata filter as key=value (repeatable)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	pairs, err := parseKeyValues(askFilters)
	if err != nil {
		return err
	}
	var filter domain.Filter
	if pairs != nil {
		filter = domain.Filter(pairs)
	}

	ctx := context.Background()
	app, err := buildApp(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	answerer := app.answerer
	if askTopK > 0 {
		answerer = answerer.WithTopK(askTopK)
	}

	answer := answerer.Ask(ctx, question, filter)

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, src := range answer.Sources {
			cmd.Printf("  [%d] %s\n", i+1, src.Source)
		}
	}
	if answer.Errored {
		return fmt.Errorf("the answer pipeline reported an error; run with --verbose for details")
	}
	return nil
}
