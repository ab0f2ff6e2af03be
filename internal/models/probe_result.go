package models

import "time"

// ProbeSummary is the preflight probe of the target URL.
type ProbeSummary struct {
	InputURL      string    `json:"input_url"`
	FinalURL      string    `json:"final_url,omitempty"`
	StatusCode    int       `json:"status_code,omitempty"`
	ContentLength int64     `json:"content_length,omitempty"`
	ContentType   string    `json:"content_type,omitempty"`
	Title         string    `json:"title,omitempty"`
	WebServer     string    `json:"webserver,omitempty"`
	Technologies  []string  `json:"technologies,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Reachable reports whether the probe got an HTTP response.
func (p *ProbeSummary) Reachable() bool {
	return p != nil && p.Error == "" && p.StatusCode > 0
}
