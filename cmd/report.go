package cmd

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"

	"github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/scanner"
	consts "github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/shared/constants"
)

const (
	htmlTemplatePath     = "templates/report.html"
	markdownTemplatePath = "templates/report.md"
)

//go:embed templates/report.html templates/report.md
var reportTemplateFS embed.FS

// sanitizePolicy strips markup from values that originate in scanned pages
// before they are interpolated into reports.
var sanitizePolicy = bluemonday.StrictPolicy()

var reportTemplateFuncs = template.FuncMap{
	"formatTime":     formatShortTimestamp,
	"upper":          strings.ToUpper,
	"severityClass":  severityClass,
	"severityTotals": severityTotals,
}

var (
	htmlReportTemplate = template.Must(
		template.New("report.html").Funcs(reportTemplateFuncs).ParseFS(reportTemplateFS, htmlTemplatePath),
	)
	markdownReportTemplate = template.Must(
		template.New("report.md").Funcs(reportTemplateFuncs).ParseFS(reportTemplateFS, markdownTemplatePath),
	)
)

// TemplateData is the view model rendered by the report templates.
type TemplateData struct {
	Metadata       RunMetadata
	Results        []scanner.PageResult
	GeneratedAt    time.Time
	TotalFindings  int
	SeverityCounts map[string]int
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a saved scan results file as Markdown, HTML, or PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		runID, _ := cmd.Flags().GetString("run")
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("output")

		format = strings.ToLower(format)
		if format != "md" && format != "html" && format != "pdf" {
			return &UnsupportedFormatError{Format: format, Allowed: []string{"md", "html", "pdf"}}
		}

		output, err := loadRunOutput(input, runID)
		if err != nil {
			return err
		}

		data := buildTemplateData(output)

		if outPath == "" {
			outPath = "vscan-report." + format
		}

		var content []byte
		switch format {
		case "md":
			rendered, err := executeTemplate(markdownReportTemplate, data)
			if err != nil {
				return err
			}
			content = []byte(rendered)
		case "html":
			rendered, err := executeTemplate(htmlReportTemplate, data)
			if err != nil {
				return err
			}
			content = []byte(rendered)
		case "pdf":
			content, err = generatePDFReportBytes(data)
			if err != nil {
				return err
			}
		}

		if err := os.WriteFile(outPath, content, consts.DefaultFilePerm); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		fmt.Printf("%s %s\n", colorSuccess("Report written:"), outPath)
		return nil
	},
}

// loadRunOutput reads results either from a JSON file written by scan -o or
// from the history store by run ID.
func loadRunOutput(input, runID string) (*RunOutput, error) {
	switch {
	case input != "" && runID != "":
		return nil, fmt.Errorf("--input and --run are mutually exclusive")
	case input != "":
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read results file: %w", err)
		}
		var output RunOutput
		if err := json.Unmarshal(data, &output); err != nil {
			return nil, fmt.Errorf("decode results file %s: %w", input, err)
		}
		return &output, nil
	case runID != "":
		st, err := openRunStore()
		if err != nil {
			return nil, err
		}
		run, err := st.Load(runID)
		if err != nil {
			return nil, err
		}
		return &RunOutput{
			Metadata: RunMetadata{
				Tool:         "vscan-form-field-analyzer",
				Version:      run.ToolVersion,
				Scanner:      run.Scanner,
				StartedAt:    run.StartedAt,
				CompletedAt:  run.CompletedAt,
				TotalTargets: run.TargetCount,
				OKCount:      run.OKCount,
				ErrorCount:   run.ErrorCount,
			},
			Results: run.Results,
		}, nil
	default:
		return nil, fmt.Errorf("either --input or --run is required")
	}
}

func buildTemplateData(output *RunOutput) TemplateData {
	results := sanitizeResults(output.Results)

	counts := make(map[string]int)
	total := 0
	for i := range results {
		for sev, n := range results[i].CountBySeverity() {
			counts[sev] += n
			total += n
		}
	}

	return TemplateData{
		Metadata:       output.Metadata,
		Results:        results,
		GeneratedAt:    time.Now().UTC(),
		TotalFindings:  total,
		SeverityCounts: counts,
	}
}

// sanitizeResults strips markup from page-controlled strings. Results are
// deep-copied so the caller's data is untouched.
func sanitizeResults(results []scanner.PageResult) []scanner.PageResult {
	clean := func(s string) string {
		return sanitizePolicy.Sanitize(s)
	}

	out := make([]scanner.PageResult, len(results))
	copy(out, results)
	for i := range out {
		forms := make([]scanner.FormInfo, len(out[i].Forms))
		copy(forms, out[i].Forms)
		for fi := range forms {
			forms[fi].Action = clean(forms[fi].Action)
			forms[fi].ResolvedAction = clean(forms[fi].ResolvedAction)
			fields := make([]scanner.FormField, len(forms[fi].Fields))
			copy(fields, forms[fi].Fields)
			for fj := range fields {
				fields[fj].Name = clean(fields[fj].Name)
				fields[fj].ID = clean(fields[fj].ID)
				fields[fj].Value = clean(fields[fj].Value)
				fields[fj].Placeholder = clean(fields[fj].Placeholder)
			}
			forms[fi].Fields = fields
		}
		out[i].Forms = forms
	}
	return out
}

func executeTemplate(tmpl *template.Template, data TemplateData) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return sb.String(), nil
}

func formatShortTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}

func severityClass(severity string) string {
	switch strings.ToLower(severity) {
	case scanner.SeverityCritical:
		return "sev-critical"
	case scanner.SeverityHigh:
		return "sev-high"
	case scanner.SeverityMedium:
		return "sev-medium"
	case scanner.SeverityLow:
		return "sev-low"
	default:
		return "sev-info"
	}
}

func severityTotals(counts map[string]int) string {
	parts := make([]string, 0, len(severityOrder))
	for _, sev := range severityOrder {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", sev, n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func generatePDFReportBytes(data TemplateData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Form Field Analysis Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Form Field Analysis Report")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", formatShortTimestamp(data.GeneratedAt)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Scanned: %s  Targets: %d  OK: %d  Errors: %d",
		formatShortTimestamp(data.Metadata.StartedAt),
		data.Metadata.TotalTargets, data.Metadata.OKCount, data.Metadata.ErrorCount))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Total findings: %d (%s)", data.TotalFindings, severityTotals(data.SeverityCounts)))
	pdf.Ln(10)

	for i := range data.Results {
		result := &data.Results[i]

		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 7, result.Target, "", "L", false)

		pdf.SetFont("Helvetica", "", 10)
		if result.Status != "ok" {
			pdf.MultiCell(0, 5, fmt.Sprintf("Error: %s", result.Error), "", "L", false)
			pdf.Ln(4)
			continue
		}
		pdf.Cell(0, 5, fmt.Sprintf("Fields: %d  Findings: %d  Score: %d (%s)",
			result.FieldCount, result.FindingCount, result.Score, result.Grade))
		pdf.Ln(6)

		for fi := range result.Forms {
			form := &result.Forms[fi]
			for _, finding := range form.Findings {
				pdf.MultiCell(0, 5, fmt.Sprintf("  [%s] %s: %s", strings.ToUpper(finding.Severity), finding.Code, finding.Message), "", "L", false)
			}
			for fj := range form.Fields {
				field := &form.Fields[fj]
				for _, finding := range field.Findings {
					pdf.MultiCell(0, 5, fmt.Sprintf("  [%s] %s (field %q): %s",
						strings.ToUpper(finding.Severity), finding.Code, fieldDisplayName(field), finding.Message), "", "L", false)
				}
			}
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	reportCmd.Flags().String("input", "", "Results JSON file produced by 'scan -o'")
	reportCmd.Flags().String("run", "", "Run ID from the history store")
	reportCmd.Flags().String("format", "md", "Report format (md|html|pdf)")
	reportCmd.Flags().String("output", "", "Report output path (default vscan-report.<format>)")
}
