package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/internal/assets"
	"github.com/adforgehq/adforge-backend/pkg/enums"
	pkgerrors "github.com/adforgehq/adforge-backend/pkg/errors"
)

type assetUploader interface {
	Upload(ctx context.Context, userID uuid.UUID, input assets.UploadInput) (*assets.AssetDTO, error)
}

// Service runs generators and pushes their output through the asset upload
// pipeline, so generated artifacts get the same metadata, paths, and
// cleanup guarantees as user uploads.
type Service struct {
	uploader   assetUploader
	generators map[enums.AssetKind]Generator
}

// NewService constructs the generation service from the available
// generators.
func NewService(uploader assetUploader, generators ...Generator) (*Service, error) {
	if uploader == nil {
		return nil, fmt.Errorf("asset uploader required")
	}
	byKind := make(map[enums.AssetKind]Generator)
	for _, gen := range generators {
		if gen == nil {
			continue
		}
		for _, kind := range gen.Kinds() {
			byKind[kind] = gen
		}
	}
	if len(byKind) == 0 {
		return nil, fmt.Errorf("at least one generator required")
	}
	return &Service{uploader: uploader, generators: byKind}, nil
}

// GenerateInput places a creative brief in the asset hierarchy.
type GenerateInput struct {
	Kind       enums.AssetKind
	CategoryID uuid.UUID
	ProductID  *uuid.UUID
	Request    Request
}

// Generate produces the artifact and stores it as an asset.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, input GenerateInput) (*assets.AssetDTO, error) {
	if input.Kind == "" || !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset kind")
	}
	gen, ok := s.generators[input.Kind]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("no generator available for kind %s", input.Kind))
	}

	input.Request.Kind = input.Kind
	output, err := gen.Generate(ctx, input.Request)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate artifact")
	}

	metadata := map[string]string{"generated": "true"}
	if input.Request.Tone != "" {
		metadata["tone"] = input.Request.Tone
	}

	return s.uploader.Upload(ctx, userID, assets.UploadInput{
		Kind:       input.Kind,
		CategoryID: input.CategoryID,
		ProductID:  input.ProductID,
		FileName:   output.FileName,
		MimeType:   output.MimeType,
		SizeBytes:  output.Size,
		Body:       output.Body,
		Metadata:   metadata,
	})
}
