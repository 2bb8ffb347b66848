package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"montecarlo/inference"
	"montecarlo/searcher"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("search failed")
	}
}

func newRootCommand() *cobra.Command {
	var (
		iterations  int
		maxChildren int
		exploration float64
		verbose     bool
		settings    = inference.DefaultSettings()
	)

	cmd := &cobra.Command{
		Use:   "montecarlo [prompt]",
		Short: "Refine an answer to a prompt with Monte Carlo tree search",
		Long: "montecarlo generates an initial answer to the prompt, then improves it " +
			"iteratively: candidate answers form a search tree, UCT picks which candidate " +
			"to critique and refine next, and a model rating of each refinement steers " +
			"the search toward the best final answer.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			settings.APIKey = os.Getenv("OPENAI_API_KEY")
			if settings.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}

			options := []searcher.Option{
				searcher.WithIterations(iterations),
				searcher.WithMaxChildren(maxChildren),
				searcher.WithExplorationWeight(exploration),
				searcher.WithMetrics(),
			}
			if verbose {
				options = append(options, searcher.WithVerbose())
			}

			model := inference.NewOpenAIModel(settings)
			mcts := searcher.NewMCTS(model, settings, options...)

			result, err := mcts.Search(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Answer)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&iterations, "iterations", searcher.DefaultIterations, "number of search iterations")
	flags.IntVar(&maxChildren, "max-children", searcher.DefaultMaxChildren, "expansion fan-out per node")
	flags.Float64Var(&exploration, "exploration", searcher.DefaultExplorationWeight, "UCT exploration weight")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log search progress")
	flags.StringVar(&settings.Model, "model", settings.Model, "model identifier")
	flags.StringVar(&settings.BaseURL, "base-url", settings.BaseURL, "OpenAI-compatible endpoint")
	flags.IntVar(&settings.MaxTokens, "max-tokens", settings.MaxTokens, "completion token budget")
	flags.Float32Var(&settings.Temperature, "temperature", settings.Temperature, "sampling temperature")
	flags.Float32Var(&settings.TopP, "top-p", settings.TopP, "nucleus sampling parameter")
	flags.IntVar(&settings.Seed, "seed", settings.Seed, "decoding seed")

	return cmd
}
