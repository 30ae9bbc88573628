package assets

import (
	"strings"

	"github.com/adforgehq/adforge-backend/pkg/enums"
)

var imageMimeTypes = []string{"image/png", "image/jpeg", "image/webp"}

var mimeTypesByKind = map[enums.AssetKind][]string{
	enums.AssetKindProductImage: imageMimeTypes,
	enums.AssetKindAngledShot:   imageMimeTypes,
	enums.AssetKindBackground:   imageMimeTypes,
	enums.AssetKindComposite:    imageMimeTypes,
	enums.AssetKindFinalAsset:   imageMimeTypes,
	enums.AssetKindCopyDoc:      {"application/pdf", "text/plain", "text/markdown"},
	enums.AssetKindTemplate:     {"image/png", "image/jpeg", "image/webp", "application/pdf"},
	enums.AssetKindGuideline:    {"application/pdf", "text/plain", "text/markdown"},
}

func isAllowedMime(kind enums.AssetKind, mimeType string) bool {
	allowed, ok := mimeTypesByKind[kind]
	if !ok {
		return true
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}
