// internal/workers/customer-service/route-query/models.go
package routequery

type Input struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

type Output struct {
	Query      string  `json:"query"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Response   string  `json:"response"`
	Escalated  bool    `json:"escalated"`
}
