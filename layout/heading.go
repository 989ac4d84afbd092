package layout

import "github.com/tsawler/docstory/model"

// Font size thresholds, in points, for inferring a heading level from
// formatting alone.
const (
	HeadingSizeLevel2 = 20.0
	HeadingSizeLevel3 = 16.0
	HeadingSizeLevel4 = 14.0
)

// HeadingKindForSize maps a uniform paragraph font size to a heading kind.
// Sizes below HeadingSizeLevel4 are body text and report false.
func HeadingKindForSize(size float64) (model.TextKind, bool) {
	switch {
	case size >= HeadingSizeLevel2:
		return model.TextHeading2, true
	case size >= HeadingSizeLevel3:
		return model.TextHeading3, true
	case size >= HeadingSizeLevel4:
		return model.TextHeading4, true
	default:
		return "", false
	}
}
