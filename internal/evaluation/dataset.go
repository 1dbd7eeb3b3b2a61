// Package evaluation runs labelled queries through routers and compares their accuracy and
// latency.
package evaluation

import (
	"fmt"
	"os"

	"support-router/internal/common/validation"
	"support-router/internal/models"

	"github.com/tidwall/gjson"
)

var testCasesSchema = validation.MustCompile("test_cases", `{
  "type": "object",
  "required": ["test_cases"],
  "properties": {
    "test_cases": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["query", "expected_intent"],
        "properties": {
          "query": {"type": "string"},
          "expected_intent": {"type": "string"}
        }
      }
    }
  }
}`)

// TestCase is one labelled query.
type TestCase struct {
	Query          string        `json:"query"`
	ExpectedIntent models.Intent `json:"expected_intent"`
}

// Skipped is a case dropped because its label is not a known intent.
type Skipped struct {
	Query  string
	Intent string
}

// ParseTestCases reads {"test_cases": [{"query": ..., "expected_intent": ...}]}.
func ParseTestCases(data []byte) ([]TestCase, []Skipped, error) {
	if err := testCasesSchema.ValidateBytes(data); err != nil {
		return nil, nil, err
	}

	var cases []TestCase
	var skipped []Skipped
	gjson.GetBytes(data, "test_cases").ForEach(func(_, c gjson.Result) bool {
		query := c.Get("query").String()
		label := c.Get("expected_intent").String()

		intent, err := models.ParseIntent(label)
		if err != nil {
			skipped = append(skipped, Skipped{Query: query, Intent: label})
			return true
		}
		cases = append(cases, TestCase{Query: query, ExpectedIntent: intent})
		return true
	})
	return cases, skipped, nil
}

func LoadTestCases(path string) ([]TestCase, []Skipped, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read test cases: %w", err)
	}
	cases, skipped, err := ParseTestCases(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cases, skipped, nil
}
