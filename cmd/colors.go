package cmd

import (
	"strings"

	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatSeverityWithColor(severity string) string {
	switch strings.ToLower(severity) {
	case "critical", "high":
		return colorError(severity)
	case "medium":
		return colorWarn(severity)
	case "low", "info":
		return colorInfo(severity)
	default:
		return severity
	}
}

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok":
		return colorSuccess(status)
	case "error":
		return colorError(status)
	default:
		return status
	}
}
