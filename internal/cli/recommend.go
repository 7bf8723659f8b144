package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outJSON bool
	timeout time.Duration
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend <request>",
	Short: "Recommend activities for a single request",
	Long: `Recommend resolves the request, searches the web, reads the top pages
and prints up to three activities that match.

Generic requests get clarification questions instead; use "chat" to answer
them, or make the request more specific.

Example:
  wayfind recommend "running route in Vienna, hard"
  wayfind recommend easy hike near Zurich --json
  wayfind recommend "indoor climbing Berlin" --llm-provider anthropic`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().BoolVar(&outJSON, "json", false, "print the full response as JSON")
	recommendCmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall timeout")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	request := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "Request: %s\n", request)
		fmt.Fprintf(os.Stderr, "LLM:     %s/%s\n", a.llm.Name(), cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Search:  %s\n", a.search.Name())
		fmt.Fprintln(os.Stderr)
	}

	resp := a.orch.GetRecommendations(ctx, request)
	return printResponse(cmd.OutOrStdout(), resp, outJSON)
}
