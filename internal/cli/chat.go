package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var metricsAddr string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive recommendations with feedback",
	Long: `Chat asks what you would like to do, shows recommendations, and then
takes your feedback: refine the results ("longer routes"), ask for
something else ("I'd rather do something indoors"), or finish ("perfect,
thanks" or "quit").

Example:
  wayfind chat
  wayfind chat --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics at this address (e.g. :9090)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
		cfg.Metrics.Enabled = true
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: a.metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() { _ = srv.Close() }()
		fmt.Fprintf(os.Stderr, "Metrics: http://%s/metrics\n", cfg.Metrics.Addr)
	}

	return chat(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
}

func chat(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	lines := bufio.NewScanner(in)
	prompt := func(label string) (string, bool) {
		fmt.Fprintf(out, "\n%s> ", label)
		if !lines.Scan() {
			return "", false
		}
		return strings.TrimSpace(lines.Text()), true
	}

	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(out, "  Wayfind - what would you like to do?")
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")

	request, ok := prompt("you")
	for ok && request == "" {
		request, ok = prompt("you")
	}
	if !ok {
		return lines.Err()
	}

	session := a.orch.NewSession(a.cfg.Conversation.MaxTurns)
	a.log.Debug("conversation started", zap.String("conversation", session.ID()))

	resp := session.Start(ctx, request)
	fmt.Fprintf(out, "\n%s\n", resp.Message)

	for !session.Done() {
		text, ok := prompt("you")
		if !ok {
			return lines.Err()
		}
		if text == "" {
			continue
		}
		resp, err := session.Reply(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", resp.Message)
	}
	return nil
}
