package enums

import "fmt"

// AssetKind defines the logical table an asset row belongs to.
type AssetKind string

const (
	AssetKindProductImage AssetKind = "product_image"
	AssetKindAngledShot   AssetKind = "angled_shot"
	AssetKindBackground   AssetKind = "background"
	AssetKindComposite    AssetKind = "composite"
	AssetKindCopyDoc      AssetKind = "copy_doc"
	AssetKindTemplate     AssetKind = "template"
	AssetKindGuideline    AssetKind = "guideline"
	AssetKindFinalAsset   AssetKind = "final_asset"
)

var validAssetKinds = []AssetKind{
	AssetKindProductImage,
	AssetKindAngledShot,
	AssetKindBackground,
	AssetKindComposite,
	AssetKindCopyDoc,
	AssetKindTemplate,
	AssetKindGuideline,
	AssetKindFinalAsset,
}

// AllAssetKinds returns every known kind, in a stable order.
func AllAssetKinds() []AssetKind {
	kinds := make([]AssetKind, len(validAssetKinds))
	copy(kinds, validAssetKinds)
	return kinds
}

// String returns the literal string for the kind.
func (a AssetKind) String() string {
	return string(a)
}

// IsValid reports whether the kind is known.
func (a AssetKind) IsValid() bool {
	for _, candidate := range validAssetKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// Folder returns the storage folder segment used for this kind inside a
// product or category subtree.
func (a AssetKind) Folder() string {
	switch a {
	case AssetKindProductImage:
		return "product-images"
	case AssetKindAngledShot:
		return "angled-shots"
	case AssetKindBackground:
		return "backgrounds"
	case AssetKindComposite:
		return "composites"
	case AssetKindCopyDoc:
		return "copy-docs"
	case AssetKindTemplate:
		return "templates"
	case AssetKindGuideline:
		return "guidelines"
	case AssetKindFinalAsset:
		return "final-assets"
	}
	return "assets"
}

// ParseAssetKind converts raw input into an AssetKind.
func ParseAssetKind(value string) (AssetKind, error) {
	for _, candidate := range validAssetKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset kind %q", value)
}
