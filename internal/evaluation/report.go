package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"support-router/internal/models"
)

func line(ch string, n int) string {
	return strings.Repeat(ch, n)
}

// PrintSummary writes the overall and per-intent numbers for one result.
func PrintSummary(w io.Writer, r Result) {
	fmt.Fprintf(w, "\n%s\n", line("─", 60))
	fmt.Fprintln(w, "Results:")
	fmt.Fprintf(w, "  Overall Accuracy: %.1f%% (%d/%d correct)\n", r.Accuracy, r.Correct, r.Total)
	fmt.Fprintf(w, "  Avg Latency:      %.0fms\n", r.Latency)
	fmt.Fprintf(w, "  Total Time:       %.1fs\n", r.TotalTime)

	fmt.Fprintln(w, "\n  Breakdown by Intent:")
	for _, intent := range models.Intents {
		stats := r.IntentBreakdown[intent.String()]
		if stats == nil || stats.Total == 0 {
			continue
		}
		acc := float64(stats.Correct) / float64(stats.Total) * 100
		fmt.Fprintf(w, "    %-15s %5.1f%% (%d/%d)\n", strings.ToUpper(intent.String()), acc, stats.Correct, stats.Total)
	}
}

// Ranked orders results by accuracy, then by latency.
func Ranked(results []Result) []Result {
	out := make([]Result, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Accuracy != out[j].Accuracy {
			return out[i].Accuracy > out[j].Accuracy
		}
		return out[i].Latency < out[j].Latency
	})
	return out
}

// PrintComparison writes the ranked comparison table.
func PrintComparison(w io.Writer, results []Result) {
	fmt.Fprintf(w, "\n%s\n", line("=", 60))
	fmt.Fprintln(w, "COMPARISON TABLE")
	fmt.Fprintf(w, "%s\n", line("=", 60))
	fmt.Fprintf(w, "%-25s %-12s %-12s %s\n", "Model", "Accuracy", "Latency", "Total Time")
	fmt.Fprintln(w, line("─", 60))
	for _, r := range Ranked(results) {
		fmt.Fprintf(w, "%-25s %6.1f%% %8.0fms %8.1fs\n", r.Model, r.Accuracy, r.Latency, r.TotalTime)
	}
}

// Recommendation picks the most accurate, the fastest and the best local candidate.
type Recommendation struct {
	BestAccuracy Result
	Fastest      Result
	BestLocal    *Result
}

// Recommend returns false when there are no results.
func Recommend(results []Result) (Recommendation, bool) {
	if len(results) == 0 {
		return Recommendation{}, false
	}

	rec := Recommendation{BestAccuracy: results[0], Fastest: results[0]}
	for _, r := range results[1:] {
		if r.Accuracy > rec.BestAccuracy.Accuracy {
			rec.BestAccuracy = r
		}
		if r.Latency < rec.Fastest.Latency {
			rec.Fastest = r
		}
	}
	for i := range results {
		r := results[i]
		if r.Local && (rec.BestLocal == nil || r.Accuracy > rec.BestLocal.Accuracy) {
			rec.BestLocal = &r
		}
	}
	return rec, true
}

// PrintRecommendations writes the recommendation block.
func PrintRecommendations(w io.Writer, results []Result) {
	rec, ok := Recommend(results)
	if !ok {
		return
	}

	fmt.Fprintf(w, "\n%s\n", line("=", 60))
	fmt.Fprintln(w, "RECOMMENDATIONS")
	fmt.Fprintf(w, "%s\n", line("=", 60))
	fmt.Fprintf(w, "Best Accuracy:  %s (%.1f%%)\n", rec.BestAccuracy.Model, rec.BestAccuracy.Accuracy)
	fmt.Fprintf(w, "Fastest:        %s (%.0fms avg)\n", rec.Fastest.Model, rec.Fastest.Latency)

	switch {
	case rec.BestAccuracy.Model == rec.Fastest.Model:
		fmt.Fprintf(w, "\n Overall Best: %s\n", rec.BestAccuracy.Model)
		fmt.Fprintln(w, "   Reason: Best accuracy AND fastest response time")
	case rec.BestAccuracy.Accuracy >= 90:
		fmt.Fprintf(w, "\n Recommended: %s\n", rec.BestAccuracy.Model)
		fmt.Fprintf(w, "   Reason: Highest routing accuracy (%.1f%%)\n", rec.BestAccuracy.Accuracy)
	default:
		fmt.Fprintf(w, "\n Recommended: Consider %s if speed matters\n", rec.Fastest.Model)
		fmt.Fprintf(w, "   Or use %s for better accuracy\n", rec.BestAccuracy.Model)
	}

	if rec.BestLocal != nil {
		fmt.Fprintf(w, "\n  Best Local Model: %s\n", rec.BestLocal.Model)
		fmt.Fprintf(w, "   Accuracy: %.1f%% | Latency: %.0fms\n", rec.BestLocal.Accuracy, rec.BestLocal.Latency)
		fmt.Fprintln(w, "   Benefit: Free, private, no API keys needed")
	}
}

// WriteResults saves results as indented JSON.
func WriteResults(path string, results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
