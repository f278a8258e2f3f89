package draft

import "strings"

// VariantLabel describes a real size/color variant. A product without a
// meaningful variant carries a nil *VariantLabel instead of sentinel strings.
type VariantLabel struct {
	Size  string
	Color string
}

// sentinel labels the catalog uses for "no variant".
var noVariantLabels = map[string]struct{}{
	"":         {},
	"-":        {},
	"موحد":     {},
	"standard": {},
	"default":  {},
}

// IsNoVariant reports whether s is one of the "no meaningful variant" labels.
func IsNoVariant(s string) bool {
	_, ok := noVariantLabels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// NewVariantLabel returns nil when neither size nor color is meaningful.
// A sentinel in one field is blanked while the other is kept.
func NewVariantLabel(size, color string) *VariantLabel {
	size, color = strings.TrimSpace(size), strings.TrimSpace(color)
	if IsNoVariant(size) {
		size = ""
	}
	if IsNoVariant(color) {
		color = ""
	}
	if size == "" && color == "" {
		return nil
	}
	return &VariantLabel{Size: size, Color: color}
}

// String renders "size / color", or just the meaningful part.
func (v *VariantLabel) String() string {
	if v == nil {
		return ""
	}
	switch {
	case v.Size == "":
		return v.Color
	case v.Color == "":
		return v.Size
	}
	return v.Size + " / " + v.Color
}
