package scanner

import (
	"net/url"
	"testing"
)

func fieldFindingCodes(field *FormField) map[string]bool {
	codes := make(map[string]bool)
	for _, f := range field.Findings {
		codes[f.Code] = true
	}
	return codes
}

func formFindingCodes(form *FormInfo) map[string]bool {
	codes := make(map[string]bool)
	for _, f := range form.Findings {
		codes[f.Code] = true
	}
	return codes
}

func analyzeSingle(t *testing.T, field FormField) *FormField {
	t.Helper()
	forms := []FormInfo{{Index: 0, Method: "post", Fields: []FormField{field}}}
	AnalyzeForms(forms, nil)
	return &forms[0].Fields[0]
}

func TestAnalyze_EmailValidation(t *testing.T) {
	bad := analyzeSingle(t, FormField{Name: "email", Type: "email", Value: "not-an-email", Autocomplete: "off"})
	if !fieldFindingCodes(bad)["missing-email-validation"] {
		t.Error("expected missing-email-validation for invalid prefilled email")
	}

	good := analyzeSingle(t, FormField{Name: "email", Type: "email", Value: "user@example.com", Autocomplete: "off"})
	if fieldFindingCodes(good)["missing-email-validation"] {
		t.Error("did not expect missing-email-validation for valid email value")
	}

	empty := analyzeSingle(t, FormField{Name: "email", Type: "email", Autocomplete: "off"})
	if fieldFindingCodes(empty)["missing-email-validation"] {
		t.Error("did not expect missing-email-validation without a prefilled value")
	}
}

func TestAnalyze_NumericValidation(t *testing.T) {
	bad := analyzeSingle(t, FormField{Name: "phone", Type: "tel", Value: "abc", Autocomplete: "off"})
	if !fieldFindingCodes(bad)["missing-numeric-validation"] {
		t.Error("expected missing-numeric-validation for non-numeric tel value")
	}

	good := analyzeSingle(t, FormField{Name: "age", Type: "number", Value: "42", Autocomplete: "off"})
	if fieldFindingCodes(good)["missing-numeric-validation"] {
		t.Error("did not expect missing-numeric-validation for digits-only value")
	}
}

func TestAnalyze_AutocompleteOnSensitiveField(t *testing.T) {
	flagged := analyzeSingle(t, FormField{Name: "pass", Type: "password", Autocomplete: "on"})
	if !fieldFindingCodes(flagged)["autocomplete-on-sensitive-field"] {
		t.Error("expected autocomplete finding for password with autocomplete=on")
	}

	safe := analyzeSingle(t, FormField{Name: "pass", Type: "password", Autocomplete: "off", MinLength: "8", Required: true})
	if len(safe.Findings) != 0 {
		t.Errorf("expected no findings for hardened password field, got %+v", safe.Findings)
	}
}

func TestAnalyze_AutocompleteTokenMarksSensitive(t *testing.T) {
	field := analyzeSingle(t, FormField{Name: "card", Type: "text", Autocomplete: "cc-number"})
	if !fieldFindingCodes(field)["autocomplete-on-sensitive-field"] {
		t.Error("expected cc-number autocomplete token to mark the field sensitive")
	}
}

func TestAnalyze_MissingRequired(t *testing.T) {
	field := analyzeSingle(t, FormField{Name: "username", Type: "text", Autocomplete: "off"})
	if !fieldFindingCodes(field)["missing-required-attribute"] {
		t.Error("expected missing-required-attribute for optional text field")
	}

	hidden := analyzeSingle(t, FormField{Name: "trace", Type: "hidden", Autocomplete: "off"})
	if fieldFindingCodes(hidden)["missing-required-attribute"] {
		t.Error("hidden fields are exempt from the required advisory")
	}

	// only hidden/submit/button are exempt
	disabled := analyzeSingle(t, FormField{Name: "legacy", Type: "text", Disabled: true, Autocomplete: "off"})
	if !fieldFindingCodes(disabled)["missing-required-attribute"] {
		t.Error("expected missing-required-attribute for disabled text field")
	}
	reset := analyzeSingle(t, FormField{Name: "clear", Type: "reset", Autocomplete: "off"})
	if !fieldFindingCodes(reset)["missing-required-attribute"] {
		t.Error("expected missing-required-attribute for reset input")
	}
}

func TestAnalyze_PasswordPolicy(t *testing.T) {
	weak := analyzeSingle(t, FormField{Name: "pass", Type: "password", Autocomplete: "off"})
	if !fieldFindingCodes(weak)["password-without-minlength"] {
		t.Error("expected password-without-minlength")
	}
}

func TestAnalyze_PrefilledSensitiveValue(t *testing.T) {
	field := analyzeSingle(t, FormField{Name: "pass", Type: "password", Autocomplete: "off", Value: "hunter2"})
	if !fieldFindingCodes(field)["prefilled-sensitive-value"] {
		t.Error("expected prefilled-sensitive-value for password with inline value")
	}
}

func TestAnalyze_SecretInHiddenField(t *testing.T) {
	field := analyzeSingle(t, FormField{Name: "api_key", Type: "hidden", Autocomplete: "off", Value: "sk-123"})
	if !fieldFindingCodes(field)["secret-in-hidden-field"] {
		t.Error("expected secret-in-hidden-field for hidden api_key with value")
	}

	benign := analyzeSingle(t, FormField{Name: "page", Type: "hidden", Autocomplete: "off", Value: "2"})
	if fieldFindingCodes(benign)["secret-in-hidden-field"] {
		t.Error("did not expect secret-in-hidden-field for a paging parameter")
	}
}

func TestAnalyze_InsecureFormTransport(t *testing.T) {
	page, _ := url.Parse("https://example.com/login")
	forms := []FormInfo{{
		Index:          0,
		Method:         "post",
		ResolvedAction: "http://example.com/session",
		Fields:         []FormField{{Name: "pass", Type: "password", Autocomplete: "off", Required: true, MinLength: "8"}},
	}}

	AnalyzeForms(forms, page)

	if !formFindingCodes(&forms[0])["insecure-form-transport"] {
		t.Error("expected insecure-form-transport for https page posting to http")
	}
}

func TestAnalyze_SensitiveFieldInGETForm(t *testing.T) {
	forms := []FormInfo{{
		Index:          0,
		Method:         "get",
		ResolvedAction: "https://example.com/search",
		Fields:         []FormField{{Name: "pass", Type: "password", Autocomplete: "off", Required: true, MinLength: "8"}},
	}}

	AnalyzeForms(forms, nil)

	if !formFindingCodes(&forms[0])["sensitive-field-in-get-form"] {
		t.Error("expected sensitive-field-in-get-form")
	}
}

func TestAnalyze_InputOutsideForm(t *testing.T) {
	forms := []FormInfo{{Index: FormlessIndex, Method: "get", Fields: []FormField{{Name: "q", Type: "search", Autocomplete: "off"}}}}

	AnalyzeForms(forms, nil)

	if !formFindingCodes(&forms[0])["input-outside-form"] {
		t.Error("expected input-outside-form for the formless group")
	}
}

func TestAnalyze_ScoreAndGrade(t *testing.T) {
	score, grade := AnalyzeForms(nil, nil)
	if score != 100 || grade != "A" {
		t.Errorf("expected 100/A for no forms, got %d/%s", score, grade)
	}

	forms := []FormInfo{{
		Index:          0,
		Method:         "get",
		ResolvedAction: "http://example.com/login",
		Fields: []FormField{
			{Name: "pass", Type: "password", Autocomplete: "on", Value: "leaked"},
		},
	}}
	score, grade = AnalyzeForms(forms, nil)
	if score >= 60 {
		t.Errorf("expected heavily penalized score, got %d", score)
	}
	if grade != "F" {
		t.Errorf("expected grade F, got %s", grade)
	}
}

func TestCalculateGrade_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"}, {79, "C"}, {70, "C"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		if got := calculateGrade(tc.score); got != tc.want {
			t.Errorf("calculateGrade(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
