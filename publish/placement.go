package publish

import (
	"fmt"
	"strings"

	"github.com/tsawler/docstory/model"
)

// Marker prefixes written into placeholder text nodes.
const (
	TextMarkerPrefix = "PLACEHOLDER_TEXT_"
	CodeMarkerPrefix = "PLACEHOLDER_CODE_"
)

// Ellipsis is treated as empty content.
const Ellipsis = "..."

// Placement ties a remote node to the block it stands for. Marker is empty
// for nodes created with their real content.
type Placement struct {
	NodeID string
	Marker string
	Block  model.Block
}

// PlaceholderMap is the node id to placement table built by Place.
type PlaceholderMap struct {
	order  []string
	byNode map[string]Placement

	// Skipped counts blocks that got no node.
	Skipped int
}

// NewPlaceholderMap returns an empty map.
func NewPlaceholderMap() *PlaceholderMap {
	return &PlaceholderMap{byNode: make(map[string]Placement)}
}

// Add records a placement. A second placement for the same node replaces
// the first but keeps its order.
func (pm *PlaceholderMap) Add(p Placement) {
	if _, ok := pm.byNode[p.NodeID]; !ok {
		pm.order = append(pm.order, p.NodeID)
	}
	pm.byNode[p.NodeID] = p
}

// Get returns the placement of a node.
func (pm *PlaceholderMap) Get(nodeID string) (Placement, bool) {
	p, ok := pm.byNode[nodeID]
	return p, ok
}

// Len returns the number of placements.
func (pm *PlaceholderMap) Len() int {
	return len(pm.order)
}

// Placements returns the placements in the order they were added.
func (pm *PlaceholderMap) Placements() []Placement {
	out := make([]Placement, 0, len(pm.order))
	for _, id := range pm.order {
		out = append(out, pm.byNode[id])
	}
	return out
}

// TextMarker returns the marker for the text block at index i.
func TextMarker(i int) string {
	return fmt.Sprintf("%s%d", TextMarkerPrefix, i)
}

// CodeMarker returns the marker for the code block at index i.
func CodeMarker(i int) string {
	return fmt.Sprintf("%s%d", CodeMarkerPrefix, i)
}

// IsMarker reports whether s is a placeholder marker.
func IsMarker(s string) bool {
	return strings.HasPrefix(s, TextMarkerPrefix) || strings.HasPrefix(s, CodeMarkerPrefix)
}

// unusable reports whether text content would publish as an empty node.
func unusable(s string) bool {
	return strings.TrimSpace(s) == "" || s == Ellipsis
}
