// Package storymap models the JSON document behind a published story.
//
// A story is a flat graph: a map of nodes keyed by id, a map of resources
// keyed by id, and the id of the root node. Nodes refer to their children
// and to resources by id. Fields this package does not model are kept
// verbatim so a parsed document can be written back without loss.
package storymap

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Node types used by the story builder and the patch step.
const (
	TypeStory     = "story"
	TypeCover     = "storycover"
	TypeText      = "text"
	TypeImage     = "image"
	TypeTable     = "table"
	TypeCode      = "code"
	TypeSeparator = "separator"
)

// ErrNoNodes is returned by Parse when the payload has no nodes section.
var ErrNoNodes = errors.New("storymap: document has no nodes")

// Document is a parsed story document.
type Document struct {
	Root      string
	Nodes     map[string]*Node
	Resources map[string]*Resource

	extra map[string]json.RawMessage
}

// Node is one entry of the nodes section. Data and Config hold the
// type-specific payload as decoded JSON values.
type Node struct {
	Type     string
	Data     map[string]any
	Config   map[string]any
	Children []string

	extra map[string]json.RawMessage
}

// Resource is one entry of the resources section.
type Resource struct {
	Type string
	Data map[string]any

	extra map[string]json.RawMessage
}

// New returns a document holding a single story root node.
func New() *Document {
	d := &Document{
		Nodes:     make(map[string]*Node),
		Resources: make(map[string]*Resource),
	}
	d.Root = d.AddNode(&Node{Type: TypeStory, Data: map[string]any{"storyType": "storymap"}})
	return d
}

// Parse decodes a story document.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("storymap: decode: %w", err)
	}
	if d.Nodes == nil {
		return nil, ErrNoNodes
	}
	if d.Resources == nil {
		d.Resources = make(map[string]*Resource)
	}
	return &d, nil
}

// Marshal encodes the document. Map keys are written in sorted order, so
// equal documents encode to equal bytes.
func (d *Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// NodeIDs returns the node ids in sorted order.
func (d *Document) NodeIDs() []string {
	ids := make([]string, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ResourceIDs returns the resource ids in sorted order.
func (d *Document) ResourceIDs() []string {
	ids := make([]string, 0, len(d.Resources))
	for id := range d.Resources {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AddNode stores n under a fresh node id and returns the id.
func (d *Document) AddNode(n *Node) string {
	id := newID("n-", func(id string) bool { _, ok := d.Nodes[id]; return ok })
	d.Nodes[id] = n
	return id
}

// AddResource stores r under a fresh resource id and returns the id.
func (d *Document) AddResource(r *Resource) string {
	id := newID("r-", func(id string) bool { _, ok := d.Resources[id]; return ok })
	d.Resources[id] = r
	return id
}

// AppendChild adds child to the children of parent.
func (d *Document) AppendChild(parent, child string) error {
	p, ok := d.Nodes[parent]
	if !ok {
		return fmt.Errorf("storymap: unknown node %s", parent)
	}
	p.Children = append(p.Children, child)
	return nil
}

// DeleteNode removes a node and every reference to it from other nodes'
// children. It reports whether the node existed.
func (d *Document) DeleteNode(id string) bool {
	if _, ok := d.Nodes[id]; !ok {
		return false
	}
	delete(d.Nodes, id)
	for _, n := range d.Nodes {
		if n == nil {
			continue
		}
		n.Children = slices.DeleteFunc(n.Children, func(c string) bool { return c == id })
	}
	return true
}

// newID draws "<prefix>xxxxxx" ids until one is free.
func newID(prefix string, taken func(string) bool) string {
	for {
		id := prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		if !taken(id) {
			return id
		}
	}
}

// Text returns data.text of a text node.
func (n *Node) Text() (string, bool) {
	s, ok := n.Data["text"].(string)
	return s, ok
}

// SetData sets one data field, creating the data object if needed.
func (n *Node) SetData(key string, v any) {
	if n.Data == nil {
		n.Data = make(map[string]any)
	}
	n.Data[key] = v
}

// SetConfig sets one config field, creating the config object if needed.
func (n *Node) SetConfig(key string, v any) {
	if n.Config == nil {
		n.Config = make(map[string]any)
	}
	n.Config[key] = v
}

// StringData returns a string data field, or "".
func (n *Node) StringData(key string) string {
	s, _ := n.Data[key].(string)
	return s
}

// StringData returns a string data field of the resource, or "".
func (r *Resource) StringData(key string) string {
	s, _ := r.Data[key].(string)
	return s
}

// SetData sets one data field, creating the data object if needed.
func (r *Resource) SetData(key string, v any) {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = v
}
