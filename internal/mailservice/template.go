package mailservice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Rendered is an email ready to be sent.
type Rendered struct {
	Subject string
	Plain   string
	HTML    string
}

// Templates holds every embedded email template, parsed once. Each file
// defines the "subject", "plainBody" and "htmlBody" blocks.
type Templates struct {
	set map[string]*template.Template
}

func NewTemplates() (*Templates, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	set := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.New("email").ParseFS(templateFS, name)
		if err != nil {
			return nil, fmt.Errorf("could not parse template %s: %w", name, err)
		}
		set[path.Base(name)] = t
	}

	return &Templates{set: set}, nil
}

func (tp *Templates) Render(name string, data any) (*Rendered, error) {
	t, ok := tp.set[name]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", name)
	}

	var out Rendered
	for _, block := range []struct {
		name string
		dst  *string
	}{
		{"subject", &out.Subject},
		{"plainBody", &out.Plain},
		{"htmlBody", &out.HTML},
	} {
		buf := new(bytes.Buffer)
		if err := t.ExecuteTemplate(buf, block.name, data); err != nil {
			return nil, fmt.Errorf("could not render %s of %s: %w", block.name, name, err)
		}
		*block.dst = strings.TrimSpace(buf.String())
	}

	return &out, nil
}
