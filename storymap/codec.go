package storymap

import (
	"encoding/json"
	"fmt"
)

// fields splits a JSON object into its members.
func fields(data []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]json.RawMessage)
	}
	return m, nil
}

// take decodes and removes one member. Missing and null members leave v
// untouched.
func take(m map[string]json.RawMessage, key string, v any) error {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	delete(m, key)
	if string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// put encodes one member into m.
func put(m map[string]json.RawMessage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	m[key] = raw
	return nil
}

// merged copies the preserved members into a fresh map.
func merged(extra map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(extra)+4)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (d *Document) UnmarshalJSON(data []byte) error {
	m, err := fields(data)
	if err != nil {
		return err
	}
	if err := take(m, "root", &d.Root); err != nil {
		return err
	}
	if err := take(m, "nodes", &d.Nodes); err != nil {
		return err
	}
	if err := take(m, "resources", &d.Resources); err != nil {
		return err
	}
	// A null entry has nothing to patch.
	for id, n := range d.Nodes {
		if n == nil {
			delete(d.Nodes, id)
		}
	}
	for id, r := range d.Resources {
		if r == nil {
			delete(d.Resources, id)
		}
	}
	d.extra = m
	return nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	m := merged(d.extra)
	if err := put(m, "root", d.Root); err != nil {
		return nil, err
	}
	nodes := d.Nodes
	if nodes == nil {
		nodes = map[string]*Node{}
	}
	if err := put(m, "nodes", nodes); err != nil {
		return nil, err
	}
	resources := d.Resources
	if resources == nil {
		resources = map[string]*Resource{}
	}
	if err := put(m, "resources", resources); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	m, err := fields(data)
	if err != nil {
		return err
	}
	if err := take(m, "type", &n.Type); err != nil {
		return err
	}
	if err := take(m, "data", &n.Data); err != nil {
		return err
	}
	if err := take(m, "config", &n.Config); err != nil {
		return err
	}
	if err := take(m, "children", &n.Children); err != nil {
		return err
	}
	n.extra = m
	return nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	m := merged(n.extra)
	if err := put(m, "type", n.Type); err != nil {
		return nil, err
	}
	if n.Data != nil {
		if err := put(m, "data", n.Data); err != nil {
			return nil, err
		}
	}
	if n.Config != nil {
		if err := put(m, "config", n.Config); err != nil {
			return nil, err
		}
	}
	if n.Children != nil {
		if err := put(m, "children", n.Children); err != nil {
			return nil, err
		}
	}
	return json.Marshal(m)
}

func (r *Resource) UnmarshalJSON(data []byte) error {
	m, err := fields(data)
	if err != nil {
		return err
	}
	if err := take(m, "type", &r.Type); err != nil {
		return err
	}
	if err := take(m, "data", &r.Data); err != nil {
		return err
	}
	r.extra = m
	return nil
}

func (r *Resource) MarshalJSON() ([]byte, error) {
	m := merged(r.extra)
	if err := put(m, "type", r.Type); err != nil {
		return nil, err
	}
	if r.Data != nil {
		if err := put(m, "data", r.Data); err != nil {
			return nil, err
		}
	}
	return json.Marshal(m)
}

// SameJSON reports whether two values encode to the same JSON. It lets
// freshly built values be compared with values decoded from a document,
// where numbers arrive as float64.
func SameJSON(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ja) == string(jb)
}
