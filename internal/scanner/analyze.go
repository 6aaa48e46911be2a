package scanner

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

// sensitiveTypes are input types that must never be autofilled or prefilled.
var sensitiveTypes = map[string]struct{}{
	"password":    {},
	"credit-card": {},
	"cvv":         {},
}

// sensitiveAutocompleteTokens mark a field as sensitive regardless of its type.
var sensitiveAutocompleteTokens = map[string]struct{}{
	"cc-number":        {},
	"cc-csc":           {},
	"cc-exp":           {},
	"current-password": {},
	"new-password":     {},
}

var secretNamePattern = regexp.MustCompile(`(?i)(token|secret|api[_-]?key|passw|csrf|auth)`)

// nonInteractiveTypes are exempt from the missing-required advisory.
var nonInteractiveTypes = map[string]struct{}{
	"hidden": {},
	"submit": {},
	"button": {},
}

// textLikeTypes are free-text inputs that should carry a maxlength bound.
var textLikeTypes = map[string]struct{}{
	"text":     {},
	"search":   {},
	"url":      {},
	"email":    {},
	"tel":      {},
	"textarea": {},
}

// fieldCheckSpec defines one per-field heuristic.
type fieldCheckSpec struct {
	Code           string
	Severity       string
	Weight         int
	Recommendation string
	// Check returns whether the finding fires and its message.
	Check func(field *FormField, form *FormInfo, page *url.URL) (bool, string)
}

// formCheckSpec defines one per-form heuristic.
type formCheckSpec struct {
	Code           string
	Severity       string
	Weight         int
	Recommendation string
	Check          func(form *FormInfo, page *url.URL) (bool, string)
}

var fieldCheckSpecs = []fieldCheckSpec{
	{
		Code:           "missing-email-validation",
		Severity:       SeverityMedium,
		Weight:         10,
		Recommendation: "Validate the email format server-side and add a 'pattern' attribute client-side",
		Check: func(field *FormField, _ *FormInfo, _ *url.URL) (bool, string) {
			if field.Type != "email" || field.Value == "" {
				return false, ""
			}
			if emailPattern.MatchString(field.Value) {
				return false, ""
			}
			return true, "Prefilled email value does not match a valid email format; input validation appears to be missing"
		},
	},
	{
		Code:           "missing-numeric-validation",
		Severity:       SeverityMedium,
		Weight:         10,
		Recommendation: "Restrict numeric fields with min/max/pattern attributes and validate server-side",
		Check: func(field *FormField, _ *FormInfo, _ *url.URL) (bool, string) {
			if field.Type != "number" && field.Type != "tel" {
				return false, ""
			}
			if field.Value == "" || digitsPattern.MatchString(field.Value) {
				return false, ""
			}
			return true, fmt.Sprintf("Prefilled %s value is not numeric; numerical validation appears to be missing", field.Type)
		},
	},
	{
		Code:           "autocomplete-on-sensitive-field",
		Severity:       SeverityHigh,
		Weight:         15,
		Recommendation: "Set autocomplete=\"off\" (or an appropriate new-password token) on sensitive fields",
		Check: func(field *FormField, _ *FormInfo, _ *url.URL) (bool, string) {
			if !isSensitiveField(field) {
				return false, ""
			}
			if field.Autocomplete == "off" {
				return false, ""
			}
			return true, fmt.Sprintf("Autocomplete is enabled for sensitive field of type %q; browsers may persist its value", field.Type)
		},
	},
	{
		Code:           "missing-required-attribute",
		Severity:       SeverityLow,
		Weight:         3,
		Recommendation: "Add 'required' to fields the application cannot accept empty",
		Check: func(field *FormField, _ *FormInfo, _ *url.URL) (bool, string) {
			if _, exempt := nonInteractiveTypes[field.Type]; exempt {
				return false, ""
			}
			if field.Required {
				return false, ""
			}
			return true, "Field lacks the 'required' attribute; consider adding it for mandatory fields"
		},
	},
	{
		Code:           "password-without-minlength",
		Severity:       SeverityMedium,
		Weight:         10,
		Recommendation: "Add minlength (8 or more) to password inputs to enforce a baseline policy client-side",
		Check: func(field *FormField, _ *FormInfo, _ *url.URL) (bool, string) {
			if field.Type != "password" || field.MinLength != "" {
				return false, ""
			}
			return true, "Password field has no minlength; weak passwords are accepted client-side"
		},
	},
	{
		Code:           "unbounded-text-input",
		Severity:       SeverityInfo,
		Weight:         0,
		Recommendation: "Add maxlength to bound free-text input size",
		Check: func(field *FormField, _ *FormInfo, _ *url.URL) (bool, string) {
			if _, text := textLikeTypes[field.Type]; !text {
				return false, ""
			}
			if field.MaxLength != "" {
				return false, ""
			}
			return true, "Free-text field has no maxlength bound"
		},
	},
	{
		Code:           "prefilled-sensitive-value",
		Severity:       SeverityCritical,
		Weight:         25,
		Recommendation: "Never emit secret values into HTML markup; issue them per-session instead",
		Check: func(field *FormField, _ *FormInfo, _ *url.URL) (bool, string) {
			if !isSensitiveField(field) || field.Value == "" {
				return false, ""
			}
			return true, "Sensitive field ships with a prefilled value in the page markup"
		},
	},
	{
		Code:           "secret-in-hidden-field",
		Severity:       SeverityHigh,
		Weight:         15,
		Recommendation: "Scope hidden tokens per-session and confirm they are not long-lived credentials",
		Check: func(field *FormField, _ *FormInfo, _ *url.URL) (bool, string) {
			if field.Type != "hidden" || field.Value == "" {
				return false, ""
			}
			if !secretNamePattern.MatchString(field.Name) && !secretNamePattern.MatchString(field.ID) {
				return false, ""
			}
			return true, fmt.Sprintf("Hidden field %q carries an inline value and a secret-like name", fieldLabel(field))
		},
	},
}

var formCheckSpecs = []formCheckSpec{
	{
		Code:           "insecure-form-transport",
		Severity:       SeverityCritical,
		Weight:         25,
		Recommendation: "Submit all forms over https; never downgrade from an https page",
		Check: func(form *FormInfo, page *url.URL) (bool, string) {
			action := form.ResolvedAction
			if action == "" || form.Index == FormlessIndex {
				return false, ""
			}
			parsed, err := url.Parse(action)
			if err != nil || parsed.Scheme != "http" {
				return false, ""
			}
			if page != nil && page.Scheme == "https" {
				return true, "Form on an https page submits to a plain http action"
			}
			if hasSensitiveField(form) {
				return true, "Form with sensitive fields submits over plain http"
			}
			return false, ""
		},
	},
	{
		Code:           "sensitive-field-in-get-form",
		Severity:       SeverityHigh,
		Weight:         15,
		Recommendation: "Use method=\"post\" for forms carrying credentials or payment data",
		Check: func(form *FormInfo, _ *url.URL) (bool, string) {
			if form.Method != "get" || form.Index == FormlessIndex {
				return false, ""
			}
			if !hasSensitiveField(form) {
				return false, ""
			}
			return true, "GET form contains sensitive fields; submitted values land in the query string and server logs"
		},
	},
	{
		Code:           "input-outside-form",
		Severity:       SeverityInfo,
		Weight:         0,
		Recommendation: "Associate inputs with a form element (or the form attribute) so validation applies",
		Check: func(form *FormInfo, _ *url.URL) (bool, string) {
			if form.Index != FormlessIndex {
				return false, ""
			}
			return true, fmt.Sprintf("%d input(s) found outside any form element", len(form.Fields))
		},
	},
}

func isSensitiveField(field *FormField) bool {
	if _, ok := sensitiveTypes[field.Type]; ok {
		return true
	}
	for _, token := range strings.Fields(field.Autocomplete) {
		if _, ok := sensitiveAutocompleteTokens[token]; ok {
			return true
		}
	}
	return false
}

func hasSensitiveField(form *FormInfo) bool {
	for i := range form.Fields {
		if isSensitiveField(&form.Fields[i]) {
			return true
		}
	}
	return false
}

func fieldLabel(field *FormField) string {
	if field.Name != "" {
		return field.Name
	}
	if field.ID != "" {
		return field.ID
	}
	return "(unnamed)"
}

// AnalyzeForms applies every heuristic to the extracted forms in place and
// returns the penalty-based score and letter grade for the page.
func AnalyzeForms(forms []FormInfo, page *url.URL) (score int, grade string) {
	penalty := 0

	for i := range forms {
		form := &forms[i]
		for _, spec := range formCheckSpecs {
			fired, msg := spec.Check(form, page)
			if !fired {
				continue
			}
			form.Findings = append(form.Findings, Finding{
				Code:           spec.Code,
				Severity:       spec.Severity,
				Message:        msg,
				Recommendation: spec.Recommendation,
			})
			penalty += spec.Weight
		}

		for j := range form.Fields {
			field := &form.Fields[j]
			for _, spec := range fieldCheckSpecs {
				fired, msg := spec.Check(field, form, page)
				if !fired {
					continue
				}
				field.Findings = append(field.Findings, Finding{
					Code:           spec.Code,
					Severity:       spec.Severity,
					Message:        msg,
					Recommendation: spec.Recommendation,
				})
				penalty += spec.Weight
			}
		}
	}

	score = 100 - penalty
	if score < 0 {
		score = 0
	}
	return score, calculateGrade(score)
}

func calculateGrade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
