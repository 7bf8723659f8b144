package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify providers are configured and reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		mark := func(ok bool) string {
			if ok {
				return "✓"
			}
			return "✗"
		}

		llmOK := a.llm.IsAvailable(ctx)
		fmt.Fprintf(out, "%s LLM:     %s/%s\n", mark(llmOK), a.llm.Name(), cfg.LLM.Model)
		fmt.Fprintf(out, "%s Search:  %s\n", mark(true), a.search.Name())
		fmt.Fprintf(out, "%s Weather: %s\n", mark(cfg.Weather.APIKey != ""), a.weather.Current(ctx, "London"))
		fmt.Fprintf(out, "%s Fetch:   %s backend\n", mark(true), cfg.HTTP.Backend)

		if !llmOK {
			return fmt.Errorf("LLM provider %s is not reachable", a.llm.Name())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
