package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Template is a subject line plus an HTML body. Bodies go through html/template,
// so every interpolated value is escaped for its HTML context.
type Template struct {
	name    string
	subject *texttemplate.Template
	body    *htmltemplate.Template
}

// Templates pairs the internal notification with the submitter acknowledgment.
type Templates struct {
	Internal       *Template
	Acknowledgment *Template
}

var templateFuncs = map[string]any{
	"upper": strings.ToUpper,
	"orNotProvided": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "Not provided"
		}
		return s
	},
}

// MustTemplate parses subject and html, panicking on syntax errors. Used for package-level templates.
func MustTemplate(name, subject, html string) *Template {
	t, err := NewTemplate(name, subject, html)
	if err != nil {
		panic(err)
	}
	return t
}

func NewTemplate(name, subject, html string) (*Template, error) {
	subj, err := texttemplate.New(name + ".subject").Option("missingkey=zero").Funcs(templateFuncs).Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subject template %s: %w", name, err)
	}
	body, err := htmltemplate.New(name + ".html").Option("missingkey=zero").Funcs(templateFuncs).Parse(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
	}
	return &Template{name: name, subject: subj, body: body}, nil
}

func (t *Template) Name() string {
	return t.name
}

// Render executes both parts against data.
func (t *Template) Render(data any) (subject, html string, err error) {
	var s bytes.Buffer
	if err := t.subject.Execute(&s, data); err != nil {
		return "", "", fmt.Errorf("failed to execute subject template %s: %w", t.name, err)
	}
	var b bytes.Buffer
	if err := t.body.Execute(&b, data); err != nil {
		return "", "", fmt.Errorf("failed to execute email template %s: %w", t.name, err)
	}
	return headerSanitizer.Replace(s.String()), b.String(), nil
}
