package scanner

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// FormScanner fetches a page and analyzes its form fields.
type FormScanner struct {
	Fetcher Fetcher
	Logger  *zap.SugaredLogger
}

// Scan fetches the target and produces a PageResult. Fetch and parse failures
// yield a result with Status "error" rather than aborting the run.
func (s *FormScanner) Scan(ctx context.Context, target string) PageResult {
	// score and grade stay unset until the page is actually analyzed
	result := PageResult{
		Target:    target,
		ScannedAt: time.Now().UTC(),
	}

	page, err := s.Fetcher.Fetch(ctx, target)
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return result
	}

	result.HTTPStatus = page.StatusCode
	result.ServerHeader = page.Header.Get("Server")
	result.ResponseTime = float64(page.ResponseTime.Milliseconds())

	if !IsHTML(page.ContentType) {
		result.Status = "error"
		result.Error = fmt.Sprintf("content type %q is not HTML", page.ContentType)
		return result
	}

	base, _ := url.Parse(page.URL)
	forms, err := ExtractForms(page.Body, base)
	if err != nil {
		result.Status = "error"
		result.Error = fmt.Sprintf("parse html: %v", err)
		return result
	}

	if len(forms) == 0 {
		if s.Logger != nil {
			s.Logger.Warnw("no forms found", "target", page.URL)
		}
		result.Status = "ok"
		result.Notes = "no forms found"
		result.Score = 100
		result.Grade = "A"
		return result
	}

	result.Score, result.Grade = AnalyzeForms(forms, base)
	result.Forms = forms
	result.Status = "ok"

	for i := range forms {
		result.FieldCount += len(forms[i].Fields)
		result.FindingCount += len(forms[i].Findings)
		for j := range forms[i].Fields {
			result.FindingCount += len(forms[i].Fields[j].Findings)
		}
	}

	if s.Logger != nil && result.FindingCount > 0 {
		s.Logger.Warnw("potential weaknesses found",
			"target", page.URL,
			"fields", result.FieldCount,
			"findings", result.FindingCount,
		)
	}

	return result
}

// Name identifies this scanner in progress output and run metadata.
func (s *FormScanner) Name() string {
	return "form-field scan"
}
