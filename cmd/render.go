package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/scanner"
)

var severityOrder = []string{
	scanner.SeverityCritical,
	scanner.SeverityHigh,
	scanner.SeverityMedium,
	scanner.SeverityLow,
	scanner.SeverityInfo,
}

func printRunJSON(output *RunOutput) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func printRunText(output *RunOutput) {
	for i := range output.Results {
		printPageResult(&output.Results[i])
	}

	fmt.Println(colorSuccess("Scan complete."))
	fmt.Printf("%s %d target(s), %d OK, %d error(s)\n",
		colorInfo("Summary:"),
		output.Metadata.TotalTargets, output.Metadata.OKCount, output.Metadata.ErrorCount)
}

func printPageResult(result *scanner.PageResult) {
	fmt.Printf("%s %s [%s]\n", colorInfo("Target:"), result.Target, formatStatusWithColor(result.Status))

	if result.Status != "ok" {
		fmt.Printf("  %s %s\n", colorError("error:"), result.Error)
		fmt.Println(strings.Repeat("-", 60))
		return
	}

	if result.Notes != "" {
		fmt.Printf("  %s\n", colorWarn(result.Notes))
	}

	fmt.Printf("  Fields: %d  Findings: %d  Score: %d (%s)\n",
		result.FieldCount, result.FindingCount, result.Score, result.Grade)

	counts := result.CountBySeverity()
	if len(counts) > 0 {
		parts := make([]string, 0, len(counts))
		for _, sev := range severityOrder {
			if n := counts[sev]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s:%d", formatSeverityWithColor(sev), n))
			}
		}
		fmt.Printf("  By severity: %s\n", strings.Join(parts, " "))
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for fi := range result.Forms {
		form := &result.Forms[fi]
		printFormHeading(form)
		for _, finding := range form.Findings {
			fmt.Fprintf(w, "\t[%s]\t%s\t%s\n", formatSeverityWithColor(finding.Severity), finding.Code, finding.Message)
		}
		for fj := range form.Fields {
			field := &form.Fields[fj]
			if len(field.Findings) == 0 {
				continue
			}
			w.Flush()
			fmt.Printf("    field %q (type=%s, autocomplete=%s, required=%t)\n",
				fieldDisplayName(field), field.Type, field.Autocomplete, field.Required)
			for _, finding := range field.Findings {
				fmt.Fprintf(w, "\t[%s]\t%s\t%s\n", formatSeverityWithColor(finding.Severity), finding.Code, finding.Message)
			}
		}
		w.Flush()
	}
	fmt.Println(strings.Repeat("-", 60))
}

func printFormHeading(form *scanner.FormInfo) {
	if form.Index == scanner.FormlessIndex {
		fmt.Printf("  inputs outside any form (%d field(s))\n", len(form.Fields))
		return
	}
	action := form.ResolvedAction
	if action == "" {
		action = "(self)"
	}
	fmt.Printf("  form #%d method=%s action=%s (%d field(s))\n", form.Index, strings.ToUpper(form.Method), action, len(form.Fields))
}

func fieldDisplayName(field *scanner.FormField) string {
	if field.Name != "" {
		return field.Name
	}
	if field.ID != "" {
		return "#" + field.ID
	}
	return "(unnamed)"
}
