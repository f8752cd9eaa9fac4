package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// AssetClass identifies one of the managed source-file categories.
type AssetClass uint8

const (
	// Styles are stylesheets concatenated into a single CSS artifact.
	Styles AssetClass = iota
	// Scripts are bundled from one entry module.
	Scripts
	// Markup are page templates rendered to HTML files.
	Markup
	// Images are binary assets mirrored and compressed.
	Images
)

var assetClassNames = [...]string{
	Styles:  "styles",
	Scripts: "scripts",
	Markup:  "markup",
	Images:  "images",
}

// AllAssetClasses returns every asset class in a stable order.
func AllAssetClasses() []AssetClass {
	return []AssetClass{Styles, Scripts, Markup, Images}
}

// String returns the lower-case name of the class.
func (c AssetClass) String() string {
	if int(c) < len(assetClassNames) {
		return assetClassNames[c]
	}
	return "unknown"
}

// Valid reports whether c is one of the known classes.
func (c AssetClass) Valid() bool {
	return int(c) < len(assetClassNames)
}

// ParseAssetClass converts a class name into an AssetClass.
// "assets" is accepted as an alias for images.
func ParseAssetClass(name string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "styles", "style", "css":
		return Styles, nil
	case "scripts", "script", "js":
		return Scripts, nil
	case "markup", "html":
		return Markup, nil
	case "images", "assets":
		return Images, nil
	default:
		return 0, zerr.With(ErrUnknownAssetClass, "class", name)
	}
}

// ParseAssetClasses parses a list of names, defaulting to all classes when empty.
func ParseAssetClasses(names []string) ([]AssetClass, error) {
	if len(names) == 0 {
		return AllAssetClasses(), nil
	}

	seen := make(map[AssetClass]bool, len(names))
	classes := make([]AssetClass, 0, len(names))
	for _, name := range names {
		c, err := ParseAssetClass(name)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		classes = append(classes, c)
	}
	return classes, nil
}

// ChangeKind is the kind of a filesystem change.
type ChangeKind uint8

const (
	// Modified indicates the content of an existing file changed.
	Modified ChangeKind = iota
	// Added indicates a new file or directory appeared.
	Added
	// Removed indicates a file or directory was deleted or renamed away.
	Removed
)

// String returns the name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case Modified:
		return "modified"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// ChangeEvent is a single filesystem change routed to one asset class.
type ChangeEvent struct {
	Class AssetClass
	// Path is the absolute path of the changed file.
	Path string
	Kind ChangeKind
}
