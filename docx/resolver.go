package docx

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// ResolvedStyle contains the properties of a paragraph style after walking
// its basedOn chain.
type ResolvedStyle struct {
	ID   string
	Name string

	// OutlineLevel is the 0-based outline level, or -1 when the style
	// defines none.
	OutlineLevel int

	// Numbering inherited from the style, for list styles such as
	// "ListBullet". NumID is empty when the style carries no numbering.
	NumID string
	ILvl  int

	FontSize float64 // points, 0 when unset
}

// StyleResolver resolves styles with inheritance support.
type StyleResolver struct {
	styles   map[string]*styleDefXML
	resolved map[string]*ResolvedStyle
}

// NewStyleResolver creates a new style resolver from parsed styles.
func NewStyleResolver(styles *stylesXML) *StyleResolver {
	sr := &StyleResolver{
		styles:   make(map[string]*styleDefXML),
		resolved: make(map[string]*ResolvedStyle),
	}
	if styles == nil {
		return sr
	}
	for i := range styles.Styles {
		style := &styles.Styles[i]
		sr.styles[style.StyleID] = style
	}
	return sr
}

// Resolve returns the resolved style for the given style ID. Unknown IDs
// resolve to a style carrying only the ID.
func (sr *StyleResolver) Resolve(styleID string) *ResolvedStyle {
	if resolved, ok := sr.resolved[styleID]; ok {
		return resolved
	}

	resolved := &ResolvedStyle{ID: styleID, OutlineLevel: -1}
	if def, ok := sr.styles[styleID]; ok {
		resolved.Name = def.Name.Val
		for _, sid := range sr.buildInheritanceChain(styleID) {
			sr.applyStyleDef(resolved, sr.styles[sid])
		}
	}

	sr.resolved[styleID] = resolved
	return resolved
}

// buildInheritanceChain returns style IDs from base to derived.
func (sr *StyleResolver) buildInheritanceChain(styleID string) []string {
	var chain []string
	visited := make(map[string]bool)

	current := styleID
	for current != "" && !visited[current] {
		visited[current] = true
		def, ok := sr.styles[current]
		if !ok {
			break
		}
		chain = append([]string{current}, chain...)
		current = ""
		if def.BasedOn != nil {
			current = def.BasedOn.Val
		}
	}
	return chain
}

// applyStyleDef applies a style definition's properties to a resolved style.
func (sr *StyleResolver) applyStyleDef(resolved *ResolvedStyle, def *styleDefXML) {
	if lvl := def.PPr.OutlineLvl; lvl != nil {
		if n, err := strconv.Atoi(lvl.Val); err == nil && n >= 0 && n <= 8 {
			resolved.OutlineLevel = n
		}
	}
	if np := def.PPr.NumPr; np != nil {
		if np.NumID != nil {
			resolved.NumID = np.NumID.Val
		}
		if np.ILvl != nil {
			resolved.ILvl, _ = strconv.Atoi(np.ILvl.Val)
		}
	}
	if sz := def.RPr.Sz; sz != nil {
		if size := parseHalfPoints(sz.Val); size > 0 {
			resolved.FontSize = size
		}
	}
}

// fold case-folds s for keyword matching. A Caser keeps state, so each
// call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// matchesAny reports whether the folded style ID or style name contains
// one of the keywords. Keywords must already be folded.
func (rs *ResolvedStyle) matchesAny(keywords ...string) bool {
	if rs == nil {
		return false
	}
	id := fold(rs.ID)
	name := fold(rs.Name)
	for _, kw := range keywords {
		if (id != "" && strings.Contains(id, kw)) || (name != "" && strings.Contains(name, kw)) {
			return true
		}
	}
	return false
}

// parseHalfPoints parses a size in half-points to points.
// Word uses half-points for font sizes (e.g., "24" = 12pt).
func parseHalfPoints(s string) float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val / 2
}
