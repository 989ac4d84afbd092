package publish

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/docstory/codelang"
	"github.com/tsawler/docstory/model"
	"github.com/tsawler/docstory/storymap"
)

// Patch rewrites the saved story with the content behind each placement,
// replaces the item data and uploads the draft resource if there is one.
func (p *Publisher) Patch(ctx context.Context, pm *PlaceholderMap) (*Report, error) {
	itemID := p.platform.ItemID()
	report := &Report{ItemID: itemID}

	doc, err := p.fetchDocument(ctx)
	if err != nil {
		return report, err
	}
	p.logger.Info("story document retrieved", "item", itemID, "nodes", len(doc.Nodes))

	report.Replacements, report.Deletions = ApplyContent(doc, pm)
	p.logger.Info("content patched", "replacements", report.Replacements, "deletions", report.Deletions)
	report.ImagesUpdated = ApplyDimensions(doc, pm)
	p.logger.Info("image dimensions patched", "resources", report.ImagesUpdated)

	data, err := doc.Marshal()
	if err != nil {
		return report, fmt.Errorf("encoding story document: %w", err)
	}
	if err := p.platform.ReplaceItemData(ctx, data); err != nil {
		return report, fmt.Errorf("replacing item data: %w", err)
	}
	p.logger.Info("item data updated", "item", itemID)
	if p.documentOut != nil {
		if _, err := p.documentOut.Write(data); err != nil {
			p.logger.Warn("story document not written", "error", err)
		}
	}

	names, err := p.platform.ListResources(ctx)
	if err != nil {
		return report, &PartialFailureError{ItemID: itemID, Err: fmt.Errorf("listing resources: %w", err)}
	}
	draft := draftName(names)
	if draft == "" {
		p.logger.Warn("draft resource not found, only item data was updated", "item", itemID)
		return report, nil
	}
	if err := p.platform.UploadResource(ctx, draft, data); err != nil {
		return report, &PartialFailureError{ItemID: itemID, Resource: draft, Err: err}
	}
	report.DraftUpdated = true
	p.logger.Info("draft resource updated", "item", itemID, "resource", draft)
	return report, nil
}

// fetchDocument prefers the draft resource and falls back to the item data
// when there is no draft or it does not parse.
func (p *Publisher) fetchDocument(ctx context.Context) (*storymap.Document, error) {
	names, err := p.platform.ListResources(ctx)
	if err != nil {
		p.logger.Warn("resources not listed, using item data", "error", err)
	}
	if draft := draftName(names); draft != "" {
		data, err := p.platform.FetchResource(ctx, draft)
		if err == nil {
			doc, perr := storymap.Parse(data)
			if perr == nil {
				p.logger.Debug("using draft resource", "resource", draft)
				return doc, nil
			}
			err = perr
		}
		p.logger.Warn("draft resource unusable, using item data", "resource", draft, "error", err)
	}

	data, err := p.platform.FetchItemData(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching item data: %w", err)
	}
	doc, err := storymap.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing item data: %w", err)
	}
	return doc, nil
}

func draftName(names []string) string {
	for _, n := range names {
		if strings.HasPrefix(n, DraftPrefix) {
			return n
		}
	}
	return ""
}

// ApplyContent writes block content into the nodes of the placeholder map.
// Nodes are visited in sorted id order. It returns the number of nodes
// changed and the number of nodes deleted. A document that no longer
// carries markers yields no replacements and no deletions.
func ApplyContent(doc *storymap.Document, pm *PlaceholderMap) (replacements, deletions int) {
	for _, id := range doc.NodeIDs() {
		node := doc.Nodes[id]
		if node == nil {
			continue
		}
		placement, ok := pm.Get(id)
		if !ok {
			continue
		}

		switch node.Type {
		case storymap.TypeText:
			text, _ := node.Text()
			if placement.Marker == "" || text != placement.Marker {
				continue
			}
			switch b := placement.Block.(type) {
			case *model.Code:
				applyCode(node, b)
				replacements++
			case *model.Text:
				if b.Markup == "" || b.Markup == Ellipsis {
					doc.DeleteNode(id)
					deletions++
					continue
				}
				applyText(node, b)
				replacements++
			}
		case storymap.TypeTable:
			if b, ok := placement.Block.(*model.Table); ok && applyTable(node, b) {
				replacements++
			}
		case storymap.TypeImage:
			if b, ok := placement.Block.(*model.Image); ok {
				replacements += applyImage(node, b)
			}
		}
	}
	return replacements, deletions
}

func applyCode(node *storymap.Node, b *model.Code) {
	node.Type = storymap.TypeCode
	node.Data = map[string]any{
		"content":     b.Content,
		"lang":        codelang.Extension(b.Language),
		"lineNumbers": true,
	}
}

func applyText(node *storymap.Node, b *model.Text) {
	text := b.Markup
	if strings.TrimSpace(text) == "" {
		text = " "
	}
	node.SetData("text", text)
	if align := textAlignment(b.Alignment); align != "" {
		node.SetData("textAlignment", align)
	}
}

// textAlignment maps a block alignment to the node's textAlignment value.
// The physical names are accepted for blocks restored from older records.
func textAlignment(a model.Alignment) string {
	switch strings.ToLower(string(a)) {
	case "center":
		return "center"
	case "end", "right":
		return "end"
	case "justify":
		return "justify"
	case "start", "left":
		return "start"
	}
	return ""
}

// applyTable reports whether the node changed.
func applyTable(node *storymap.Node, b *model.Table) bool {
	rows, cols := b.NumRows(), b.NumColumns()
	cells := make(map[string]any, rows)
	for r, row := range b.Rows {
		rowCells := make(map[string]any)
		for c, value := range row {
			if c >= cols || value == "" {
				continue
			}
			rowCells[strconv.Itoa(c)] = map[string]any{"value": value}
		}
		if len(rowCells) > 0 {
			cells[strconv.Itoa(r)] = rowCells
		}
	}

	want := map[string]any{"numRows": rows, "numColumns": cols, "cells": cells}
	if b.Caption != "" {
		want["caption"] = b.Caption
	}
	changed := false
	for k, v := range want {
		if !storymap.SameJSON(node.Data[k], v) {
			node.SetData(k, v)
			changed = true
		}
	}
	return changed
}

// applyImage returns the number of changes made: one for the caption and
// one for float placement.
func applyImage(node *storymap.Node, b *model.Image) int {
	n := 0
	if b.Caption != "" && node.StringData("caption") != b.Caption {
		node.SetData("caption", b.Caption)
		n++
	}
	if b.Display == model.DisplayFloat && b.FloatAlignment != model.AlignNone {
		size, _ := node.Config["size"].(string)
		align, _ := node.Config["floatAlignment"].(string)
		if size != string(model.DisplayFloat) || align != string(b.FloatAlignment) {
			node.SetConfig("size", string(model.DisplayFloat))
			node.SetConfig("floatAlignment", string(b.FloatAlignment))
			n++
		}
	}
	return n
}

// ApplyDimensions copies recorded pixel sizes of image blocks into the
// image resources their nodes reference. It returns the number of
// resources changed.
func ApplyDimensions(doc *storymap.Document, pm *PlaceholderMap) int {
	updated := 0
	for _, rid := range doc.ResourceIDs() {
		res := doc.Resources[rid]
		if res == nil || res.Type != storymap.TypeImage || res.StringData("resourceId") == "" {
			continue
		}
		for _, nid := range doc.NodeIDs() {
			node := doc.Nodes[nid]
			if node == nil || node.Type != storymap.TypeImage || node.StringData("image") != rid {
				continue
			}
			placement, ok := pm.Get(nid)
			if !ok {
				continue
			}
			img, ok := placement.Block.(*model.Image)
			if !ok || img.Dimensions == nil {
				continue
			}
			if !storymap.SameJSON(res.Data["width"], img.Dimensions.Width) ||
				!storymap.SameJSON(res.Data["height"], img.Dimensions.Height) {
				res.SetData("width", img.Dimensions.Width)
				res.SetData("height", img.Dimensions.Height)
				updated++
			}
			break
		}
	}
	return updated
}
