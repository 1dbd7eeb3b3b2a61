package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"support-router/internal/models"

	"github.com/spf13/cobra"
)

const resetCommand = "/reset"

// chatRouter is what the console loop drives.
type chatRouter interface {
	Route(ctx context.Context, query, sessionID string) models.FinalResponse
	ResetSession(ctx context.Context, sessionID string) error
}

func newChatCmd(root *rootOptions) *cobra.Command {
	var (
		backend   string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the router from the console",
		Long: `Start an interactive session. Type quit, exit or q to leave and /reset to clear
the session's clarification history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, appOptions{quiet: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if backend == "" {
				backend = cfg.Capability.Backend
			}
			r, err := a.newRouter(ctx, routerOptions{backend: backend})
			if err != nil {
				return err
			}

			banner(cmd.OutOrStdout(), backend, cfg.Capability.Backends[backend].Model)
			return runChat(ctx, r, sessionID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&backend, "backend", "b", "", "Capability backend (default: capability.backend)")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "main-session", "Session id for the conversation")

	return cmd
}

func banner(w io.Writer, backend, model string) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "Customer Service Bot")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	if model != "" {
		fmt.Fprintf(w, "Using: %s (%s)\n", backend, model)
	} else {
		fmt.Fprintf(w, "Using: %s\n", backend)
	}
	fmt.Fprintln(w, "Type 'quit' to exit")
}

func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// runChat reads one query per line until a quit word or end of input.
func runChat(ctx context.Context, r chatRouter, sessionID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		switch {
		case isQuit(query):
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case query == "":
			continue
		case query == resetCommand:
			if err := r.ResetSession(ctx, sessionID); err != nil {
				fmt.Fprintf(out, "Could not reset session: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Session reset.")
			continue
		}

		result := r.Route(ctx, query, sessionID)
		fmt.Fprintf(out, "\nBot: %s\n", result.Response)
		fmt.Fprintf(out, "[Intent: %s, Confidence: %.2f]\n", result.Intent, result.Confidence)
	}
}
