package models

import "fmt"

// AskRequest is a question against the indexed content.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Validate checks the request and normalizes TopK against the given bounds.
// Returns an error if the question is empty.
func (q *AskRequest) Validate(defaultTopK, maxTopK int) error {
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	return nil
}
