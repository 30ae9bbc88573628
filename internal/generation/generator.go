package generation

import (
	"context"
	"io"

	"github.com/adforgehq/adforge-backend/pkg/enums"
)

// Request carries the creative brief for one generated asset.
type Request struct {
	Kind        enums.AssetKind
	ProductName string
	Category    string
	Tone        string
	Highlights  []string
}

// Output is one generated artifact ready for the upload pipeline.
type Output struct {
	FileName string
	MimeType string
	Size     int64
	Body     io.Reader
}

// Generator produces creative artifacts. Implementations range from local
// template renderers to remote model backends; the service treats them all
// the same and pushes whatever comes back through the asset pipeline.
type Generator interface {
	// Kinds lists the asset kinds this generator can produce.
	Kinds() []enums.AssetKind
	// Generate renders one artifact for the request.
	Generate(ctx context.Context, req Request) (*Output, error)
}
