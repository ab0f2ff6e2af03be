package probing

import (
	"sort"
	"time"

	"github.com/projectdiscovery/httpx/runner"

	"github.com/aleister1102/mirrorinc/internal/models"
)

// mapResult converts an httpx result into the probe summary carried by the report.
func mapResult(res runner.Result, input string) *models.ProbeSummary {
	summary := &models.ProbeSummary{
		InputURL:      input,
		FinalURL:      res.FinalURL,
		StatusCode:    res.StatusCode,
		ContentLength: int64(res.ContentLength),
		ContentType:   res.ContentType,
		Title:         res.Title,
		WebServer:     res.WebServer,
		Error:         res.Error,
		Timestamp:     res.Timestamp,
	}
	if summary.FinalURL == "" {
		summary.FinalURL = res.URL
	}
	if summary.Timestamp.IsZero() {
		summary.Timestamp = time.Now()
	}
	if len(res.Technologies) > 0 {
		summary.Technologies = append([]string(nil), res.Technologies...)
		sort.Strings(summary.Technologies)
	}
	return summary
}

// failedSummary records a probe that produced no result at all.
func failedSummary(input, reason string) *models.ProbeSummary {
	return &models.ProbeSummary{
		InputURL:  input,
		Error:     reason,
		Timestamp: time.Now(),
	}
}
