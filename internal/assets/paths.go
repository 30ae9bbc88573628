package assets

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/adforgehq/adforge-backend/pkg/enums"
)

// buildStoragePath derives the logical object path for an asset. The layout
// mirrors the navigation hierarchy so the storage tree stays browsable:
//
//	categories/<category-slug>[/<product-slug>]/<kind-folder>/<id>-<file-name>
//
// The asset ID prefix keeps paths unique even when users reuse file names.
func buildStoragePath(categorySlug, productSlug string, kind enums.AssetKind, id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}

	segments := []string{"categories", categorySlug}
	if productSlug != "" {
		segments = append(segments, productSlug)
	}
	segments = append(segments, kind.Folder(), fmt.Sprintf("%s-%s", id, cleanName))
	return path.Join(segments...)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
