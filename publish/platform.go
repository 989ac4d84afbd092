// Package publish places content blocks into a remote story and patches
// the story document with their real content.
//
// Publishing runs in two phases. Place creates one node per block through
// the Platform, using a marker string for text and code, and saves the
// story. Patch then fetches the whole story document, replaces markers with
// content, retypes code nodes, fills tables, captions and dimensions, and
// writes the document back. Nothing created in the first phase is rolled
// back if the second one fails; a journal can keep the placements so Patch
// can be re-run later.
package publish

import (
	"context"

	"github.com/tsawler/docstory/model"
)

// Platform is the remote story service.
type Platform interface {
	// CreateTextNode adds a text node and returns its id.
	CreateTextNode(ctx context.Context, content string, kind model.TextKind) (string, error)
	CreateImageNode(ctx context.Context, spec ImageSpec) (string, error)
	CreateTableNode(ctx context.Context, rows, cols int, caption string) (string, error)
	CreateSeparatorNode(ctx context.Context) (string, error)

	// Save persists the story created so far. ItemID is valid afterwards.
	Save(ctx context.Context) error
	ItemID() string

	ListResources(ctx context.Context) ([]string, error)
	FetchResource(ctx context.Context, name string) ([]byte, error)
	FetchItemData(ctx context.Context) ([]byte, error)
	ReplaceItemData(ctx context.Context, data []byte) error
	UploadResource(ctx context.Context, name string, data []byte) error
}

// ImageSpec describes an image node.
type ImageSpec struct {
	Path           string
	Caption        string
	AltText        string
	Display        model.Display
	FloatAlignment model.Alignment
}

// Journal keeps placements so Patch can be re-run against an item.
type Journal interface {
	Record(ctx context.Context, itemID string, pm *PlaceholderMap) error
	Clear(ctx context.Context, itemID string) error
}
