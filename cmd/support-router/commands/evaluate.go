package commands

import (
	"fmt"
	"sort"

	"support-router/internal/common/config"
	"support-router/internal/evaluation"

	"github.com/spf13/cobra"
)

const defaultResultsPath = "evaluation_results.json"

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	var (
		backends  []string
		casesPath string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure routing accuracy and latency per capability backend",
		Long: `Route every labelled test case through one router per backend and compare them.
Each case runs in a fresh session. Backends that cannot be configured are skipped.

Examples:
  support-router evaluate
  support-router evaluate --backends openai,ollama --output results.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if casesPath == "" {
				casesPath = cfg.Data.TestCasesPath
			}

			out := cmd.OutOrStdout()
			cases, skipped, err := evaluation.LoadTestCases(casesPath)
			if err != nil {
				return err
			}
			for _, s := range skipped {
				fmt.Fprintf(out, "Unknown intent '%s' for query: %s\n", s.Intent, s.Query)
			}
			fmt.Fprintf(out, "Loaded %d test cases from %s\n", len(cases), casesPath)

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, appOptions{quiet: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if len(backends) == 0 {
				backends = configuredBackends(cfg)
			}

			runner := evaluation.NewRunner(out)
			var results []evaluation.Result
			for _, backend := range backends {
				r, err := a.newRouter(ctx, routerOptions{backend: backend, isolated: true})
				if err != nil {
					fmt.Fprintf(out, "Skipping %s: %v\n", backend, err)
					continue
				}
				results = append(results, runner.Evaluate(ctx, evaluation.Candidate{
					Name:    candidateName(cfg, backend),
					Backend: backend,
					Local:   backend == config.BackendOllama,
					Router:  r,
				}, cases))
			}

			if len(results) == 0 {
				return fmt.Errorf("no backend could be evaluated")
			}

			evaluation.PrintComparison(out, results)
			evaluation.PrintRecommendations(out, results)

			if err := evaluation.WriteResults(output, results); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nResults saved to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&backends, "backends", nil, "Backends to compare (default: every configured backend)")
	cmd.Flags().StringVar(&casesPath, "cases", "", "Test cases file (default: data.test_cases_path)")
	cmd.Flags().StringVarP(&output, "output", "o", defaultResultsPath, "Where to write the results")

	return cmd
}

// configuredBackends lists the backends with enough settings to run, in name order.
func configuredBackends(cfg *config.Config) []string {
	var names []string
	for name, b := range cfg.Capability.Backends {
		switch name {
		case config.BackendOllama, config.BackendGenAI:
		default:
			if b.APIKey == "" {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func candidateName(cfg *config.Config, backend string) string {
	if model := cfg.Capability.Backends[backend].Model; model != "" {
		return fmt.Sprintf("%s (%s)", backend, model)
	}
	return backend
}
