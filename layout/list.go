package layout

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tsawler/docstory/model"
)

// ListItem is one numbered or bulleted paragraph found while scanning a
// document, before any grouping.
type ListItem struct {
	Text     string // inline markup
	Level    int    // 0-based indentation level
	Type     model.TextKind
	Position int    // body element index
	NumID    string // numbering definition id
}

// GroupItem is a list item after grouping. OriginalType keeps the type the
// item had before its group's type was applied.
type GroupItem struct {
	Text         string
	Level        int
	OriginalType model.TextKind
}

// ListGroup is a run of items rendered as one list block. Every item shares
// the group Type; after flattening, levels span at most two values.
type ListGroup struct {
	Type     model.TextKind
	Position int
	Items    []GroupItem
}

// minLevel returns the smallest level in the group.
func (g ListGroup) minLevel() int {
	if len(g.Items) == 0 {
		return 0
	}
	m := g.Items[0].Level
	for _, it := range g.Items[1:] {
		if it.Level < m {
			m = it.Level
		}
	}
	return m
}

// ListConfig holds configuration for list reconstruction.
type ListConfig struct {
	// DeepPrefix is prepended once per level beyond the second when a
	// deeper item is flattened.
	DeepPrefix string

	// Logger receives debug traces. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultListConfig returns sensible defaults for list reconstruction.
func DefaultListConfig() ListConfig {
	return ListConfig{
		DeepPrefix: "--- ",
		Logger:     slog.Default(),
	}
}

// ListBuilder turns scanned list items into rendered list blocks.
type ListBuilder struct {
	config ListConfig
}

// NewListBuilder creates a list builder with default configuration.
func NewListBuilder() *ListBuilder {
	return NewListBuilderWithConfig(DefaultListConfig())
}

// NewListBuilderWithConfig creates a list builder with custom configuration.
func NewListBuilderWithConfig(config ListConfig) *ListBuilder {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.DeepPrefix == "" {
		config.DeepPrefix = "--- "
	}
	return &ListBuilder{config: config}
}

// Build runs grouping, flattening and rendering over the pending items,
// keyed by numbering id, and returns one text block per group sorted by
// position.
func (b *ListBuilder) Build(pending map[string][]ListItem) ([]model.Block, []model.Warning) {
	groups, warnings := b.Group(pending)
	groups = b.Flatten(groups)

	blocks := make([]model.Block, 0, len(groups))
	for _, g := range groups {
		markup, w := b.Render(g)
		warnings = append(warnings, w...)
		blocks = append(blocks, &model.Text{Kind: g.Type, Markup: markup, Pos: g.Position})
		b.config.Logger.Debug("list block built", "type", g.Type, "items", len(g.Items), "position", g.Position)
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Position() < blocks[j].Position() })
	return blocks, warnings
}

// Group merges the items of every numbering id into one position ordered
// sequence and splits it into groups. A new group starts only at a level-0
// item whose predecessor was also level 0 with a different numbering id;
// returning to level 0 from a deeper level continues the current group.
// The first level-0 item fixes the group type and every item of another
// type is coerced, with a warning.
func (b *ListBuilder) Group(pending map[string][]ListItem) ([]ListGroup, []model.Warning) {
	var flat []ListItem
	numIDs := make([]string, 0, len(pending))
	for id := range pending {
		numIDs = append(numIDs, id)
	}
	sort.Strings(numIDs)
	for _, id := range numIDs {
		for _, it := range pending[id] {
			it.NumID = id
			flat = append(flat, it)
		}
	}
	if len(flat) == 0 {
		return nil, nil
	}
	sort.SliceStable(flat, func(i, j int) bool { return flat[i].Position < flat[j].Position })

	var (
		groups   []ListGroup
		current  = ListGroup{Position: flat[0].Position}
		lastNum  string
		lastLvl  = -1
		warnings []model.Warning
	)
	for _, it := range flat {
		if it.Level == 0 && len(current.Items) > 0 && lastLvl == 0 && it.NumID != lastNum {
			groups = append(groups, current)
			current = ListGroup{Position: it.Position}
		}
		lastNum, lastLvl = it.NumID, it.Level

		current.Items = append(current.Items, GroupItem{Text: it.Text, Level: it.Level, OriginalType: it.Type})
		if current.Type == "" && it.Level == 0 {
			current.Type = it.Type
		}
	}
	groups = append(groups, current)

	for gi := range groups {
		g := &groups[gi]
		if g.Type == "" {
			g.Type = predominantType(g.Items)
		}
		for _, it := range g.Items {
			if it.OriginalType != g.Type {
				warnings = append(warnings, model.Warning{
					Kind:     model.WarningStructural,
					Position: g.Position,
					Message:  fmt.Sprintf("list item %q converted from %s to %s", abbreviate(it.Text, 30), it.OriginalType, g.Type),
				})
			}
		}
	}
	b.config.Logger.Debug("list items grouped", "items", len(flat), "groups", len(groups))
	return groups, warnings
}

// predominantType picks the most common type among root items, or among
// all items when no item sits at level 0. Ties go to the type seen first.
func predominantType(items []GroupItem) model.TextKind {
	var pool []GroupItem
	for _, it := range items {
		if it.Level == 0 {
			pool = append(pool, it)
		}
	}
	if len(pool) == 0 {
		pool = items
	}
	counts := make(map[model.TextKind]int)
	best, bestN := model.TextBulletList, 0
	for _, it := range pool {
		t := it.OriginalType
		if t == "" {
			t = model.TextBulletList
		}
		counts[t]++
		if counts[t] > bestN {
			best, bestN = t, counts[t]
		}
	}
	return best
}

// Flatten limits every group to two levels. Items more than one level below
// the group's shallowest level move up to the second level and gain one
// DeepPrefix per extra level. Applying Flatten twice changes nothing.
func (b *ListBuilder) Flatten(groups []ListGroup) []ListGroup {
	out := make([]ListGroup, 0, len(groups))
	flattened := 0
	for _, g := range groups {
		base := g.minLevel()
		ng := ListGroup{Type: g.Type, Position: g.Position, Items: make([]GroupItem, 0, len(g.Items))}
		for _, it := range g.Items {
			if rel := it.Level - base; rel > 1 {
				it.Text = strings.Repeat(b.config.DeepPrefix, rel-1) + it.Text
				it.Level = base + 1
				flattened++
			}
			ng.Items = append(ng.Items, it)
		}
		out = append(out, ng)
	}
	if flattened > 0 {
		b.config.Logger.Debug("deep list items flattened", "count", flattened)
	}
	return out
}

// Render produces the list markup for a flattened group: a sequence of
// <li> entries, each root followed by its children in a nested <ol> or
// <ul>. There is no outer container element.
func (b *ListBuilder) Render(g ListGroup) (string, []model.Warning) {
	type entry struct {
		text     string
		children []string
	}
	base := g.minLevel()
	var (
		entries  []*entry
		parent   *entry
		warnings []model.Warning
	)
	for _, it := range g.Items {
		if it.Level == base || parent == nil {
			if it.Level != base {
				warnings = append(warnings, model.Warning{
					Kind:     model.WarningStructural,
					Position: g.Position,
					Message:  fmt.Sprintf("nested list item %q has no parent and was promoted", abbreviate(it.Text, 30)),
				})
			}
			parent = &entry{text: it.Text}
			entries = append(entries, parent)
			continue
		}
		parent.children = append(parent.children, it.Text)
	}

	tag := "ul"
	if g.Type == model.TextNumberedList {
		tag = "ol"
	}
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString("<li>")
		sb.WriteString(e.text)
		if len(e.children) > 0 {
			sb.WriteString("<" + tag + ">")
			for _, c := range e.children {
				sb.WriteString("<li>" + c + "</li>")
			}
			sb.WriteString("</" + tag + ">")
		}
		sb.WriteString("</li>")
	}
	return sb.String(), warnings
}

// MergeByPosition interleaves list blocks with the other blocks of a
// document. The result is ordered by position; blocks sharing a position
// keep their relative order, non-list blocks first.
func MergeByPosition(blocks, lists []model.Block) []model.Block {
	out := make([]model.Block, 0, len(blocks)+len(lists))
	out = append(out, blocks...)
	out = append(out, lists...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position() < out[j].Position() })
	return out
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
