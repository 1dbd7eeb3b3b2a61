package evaluation

import (
	"context"
	"fmt"
	"io"
	"time"

	"support-router/internal/models"

	"github.com/google/uuid"
)

// Router is the routing surface under evaluation.
type Router interface {
	Route(ctx context.Context, query, sessionID string) models.FinalResponse
}

type IntentStats struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Result summarises one candidate. Latency is the mean per query in milliseconds and
// TotalTime the sum in seconds.
type Result struct {
	Model           string                  `json:"model"`
	Backend         string                  `json:"backend"`
	Local           bool                    `json:"local"`
	Accuracy        float64                 `json:"accuracy"`
	Correct         int                     `json:"correct"`
	Total           int                     `json:"total"`
	Latency         float64                 `json:"latency"`
	TotalTime       float64                 `json:"total_time"`
	IntentBreakdown map[string]*IntentStats `json:"intent_breakdown"`
}

// Candidate is one router to evaluate.
type Candidate struct {
	Name    string
	Backend string
	Local   bool
	Router  Router
}

// Runner evaluates candidates and streams per-case lines to Out.
type Runner struct {
	Out   io.Writer
	Clock func() time.Time
}

func NewRunner(out io.Writer) *Runner {
	return &Runner{Out: out, Clock: time.Now}
}

// Evaluate routes every case through a fresh session so escalation state never carries over
// between cases.
func (r *Runner) Evaluate(ctx context.Context, c Candidate, cases []TestCase) Result {
	res := Result{
		Model:           c.Name,
		Backend:         c.Backend,
		Local:           c.Local,
		Total:           len(cases),
		IntentBreakdown: make(map[string]*IntentStats, len(models.Intents)),
	}
	for _, intent := range models.Intents {
		res.IntentBreakdown[intent.String()] = &IntentStats{}
	}

	fmt.Fprintf(r.Out, "\n%s\n", line("=", 60))
	fmt.Fprintf(r.Out, "Testing: %s\n", c.Name)
	fmt.Fprintf(r.Out, "%s\n", line("=", 60))

	var total time.Duration
	for i, tc := range cases {
		if ctx.Err() != nil {
			break
		}

		start := r.Clock()
		resp := c.Router.Route(ctx, tc.Query, "eval-"+uuid.NewString())
		elapsed := r.Clock().Sub(start)
		total += elapsed

		stats := res.IntentBreakdown[tc.ExpectedIntent.String()]
		stats.Total++

		mark := "✗"
		if resp.Intent == tc.ExpectedIntent {
			res.Correct++
			stats.Correct++
			mark = "✓"
		}
		fmt.Fprintf(r.Out, "%s [%d/%d] %-40s Expected: %-15s Got: %-15s (%dms)\n",
			mark, i+1, len(cases), truncate(tc.Query, 40), tc.ExpectedIntent, resp.Intent, elapsed.Milliseconds())
	}

	if res.Total > 0 {
		res.Accuracy = float64(res.Correct) / float64(res.Total) * 100
		res.Latency = float64(total.Milliseconds()) / float64(res.Total)
	}
	res.TotalTime = total.Seconds()

	PrintSummary(r.Out, res)
	return res
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
