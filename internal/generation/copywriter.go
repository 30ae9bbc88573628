package generation

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/adforgehq/adforge-backend/pkg/enums"
	"github.com/adforgehq/adforge-backend/pkg/slug"
)

const copyTemplate = `# {{ .ProductName }}

{{ .Opening }}

{{ range .Highlights -}}
- {{ . }}
{{ end -}}
`

var openingsByTone = map[string]string{
	"playful": "Say hello to %s, the %s pick that doesn't take itself too seriously.",
	"premium": "Introducing %s. Crafted for those who expect more from %s.",
	"direct":  "%s. The %s product that does exactly what it says.",
	"default": "Meet %s, a fresh take on %s.",
}

// Copywriter renders markdown ad copy from a fixed template. It is the
// built-in generator; remote backends can replace it behind the same
// interface.
type Copywriter struct {
	tmpl *template.Template
}

// NewCopywriter builds the template-backed generator.
func NewCopywriter() (*Copywriter, error) {
	tmpl, err := template.New("copy").Parse(copyTemplate)
	if err != nil {
		return nil, fmt.Errorf("generation: parse copy template: %w", err)
	}
	return &Copywriter{tmpl: tmpl}, nil
}

// Kinds reports that the copywriter only produces copy docs.
func (c *Copywriter) Kinds() []enums.AssetKind {
	return []enums.AssetKind{enums.AssetKindCopyDoc}
}

// Generate renders the brief into a markdown document.
func (c *Copywriter) Generate(ctx context.Context, req Request) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Kind != enums.AssetKindCopyDoc {
		return nil, fmt.Errorf("generation: copywriter cannot produce %s", req.Kind)
	}
	if strings.TrimSpace(req.ProductName) == "" {
		return nil, fmt.Errorf("generation: product name is required")
	}

	opening, ok := openingsByTone[strings.ToLower(req.Tone)]
	if !ok {
		opening = openingsByTone["default"]
	}

	data := struct {
		ProductName string
		Opening     string
		Highlights  []string
	}{
		ProductName: req.ProductName,
		Opening:     fmt.Sprintf(opening, req.ProductName, strings.ToLower(req.Category)),
		Highlights:  req.Highlights,
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("generation: render copy: %w", err)
	}

	name := slug.Make(req.ProductName)
	if name == "" {
		name = "copy"
	}
	return &Output{
		FileName: name + "-copy.md",
		MimeType: "text/markdown",
		Size:     int64(buf.Len()),
		Body:     &buf,
	}, nil
}
