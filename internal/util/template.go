package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// RenderTemplate executes text as a text/template against data. Text without
// template markers is returned as is.
func RenderTemplate(text string, data any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=zero").Funcs(template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
		"bullet": func(items []string) string {
			var b strings.Builder
			for _, item := range items {
				fmt.Fprintf(&b, "- %s\n", item)
			}
			return strings.TrimRight(b.String(), "\n")
		},
	}).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
