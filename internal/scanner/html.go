package scanner

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	consts "github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/shared/constants"
)

// FormlessIndex marks the synthetic group that collects input elements found
// outside any <form>.
const FormlessIndex = -1

// ExtractForms parses the document and returns every form with its fields.
// Inputs outside a form are grouped under a trailing FormInfo with index
// FormlessIndex. base, when non-nil, is used to resolve form actions.
func ExtractForms(body []byte, base *url.URL) ([]FormInfo, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var forms []FormInfo
	formless := FormInfo{Index: FormlessIndex, Method: "get"}

	var walk func(n *html.Node, current *FormInfo)
	walk = func(n *html.Node, current *FormInfo) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Form:
				form := FormInfo{
					Index:  len(forms),
					Action: attrValue(n, "action"),
					Method: normalizeMethod(attrValue(n, "method")),
				}
				form.ResolvedAction = resolveAction(base, form.Action)
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c, &form)
				}
				forms = append(forms, form)
				return
			case atom.Input, atom.Select, atom.Textarea, atom.Button:
				if field, ok := parseField(n); ok {
					if current != nil {
						current.Fields = append(current.Fields, field)
					} else {
						formless.Fields = append(formless.Fields, field)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, current)
		}
	}
	walk(doc, nil)

	if len(formless.Fields) > 0 {
		forms = append(forms, formless)
	}
	return forms, nil
}

func parseField(n *html.Node) (FormField, bool) {
	field := FormField{
		Name:         attrValue(n, "name"),
		ID:           attrValue(n, "id"),
		Value:        clampValue(attrValue(n, "value")),
		Placeholder:  attrValue(n, "placeholder"),
		MaxLength:    attrValue(n, "maxlength"),
		MinLength:    attrValue(n, "minlength"),
		Pattern:      attrValue(n, "pattern"),
		Required:     hasAttr(n, "required"),
		Readonly:     hasAttr(n, "readonly"),
		Disabled:     hasAttr(n, "disabled"),
		Autocomplete: attrValue(n, "autocomplete"),
	}

	switch n.DataAtom {
	case atom.Input:
		field.Type = strings.ToLower(attrValue(n, "type"))
		if field.Type == "" {
			field.Type = "text"
		}
	case atom.Select:
		field.Type = "select"
	case atom.Textarea:
		field.Type = "textarea"
	case atom.Button:
		// only submit-capable buttons are of interest
		t := strings.ToLower(attrValue(n, "type"))
		if t != "" && t != "submit" {
			return FormField{}, false
		}
		field.Type = "submit"
	}

	// Browsers treat an absent autocomplete attribute as "on"; the analyzer
	// records it as "off" so only an explicit opt-in is flagged.
	if field.Autocomplete == "" {
		field.Autocomplete = "off"
	} else {
		field.Autocomplete = strings.ToLower(strings.TrimSpace(field.Autocomplete))
	}

	return field, true
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}

func normalizeMethod(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		return "get"
	}
	return method
}

func resolveAction(base *url.URL, action string) string {
	if base == nil {
		return action
	}
	action = strings.TrimSpace(action)
	if action == "" {
		// empty action submits to the current page
		return base.String()
	}
	ref, err := url.Parse(action)
	if err != nil {
		return action
	}
	return base.ResolveReference(ref).String()
}

func clampValue(v string) string {
	if len(v) > consts.MaxFieldValueLen {
		return v[:consts.MaxFieldValueLen]
	}
	return v
}
