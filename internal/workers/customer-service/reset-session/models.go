// internal/workers/customer-service/reset-session/models.go
package resetsession

type Input struct {
	SessionID string `json:"sessionId"`
}

type Output struct {
	SessionID string `json:"sessionId"`
	Reset     bool   `json:"sessionReset"`
}
