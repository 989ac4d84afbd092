package docx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/tsawler/docstory/media"
	"github.com/tsawler/docstory/model"
)

const (
	mediaTargetRoot  = "media/"
	defaultFloatSide = model.AlignEnd
)

var errNoImageRelationship = errors.New("no image relationship found")

var wrapMarkers = []string{"wrapSquare", "wrapTight", "wrapThrough", "wrapTopBottom"}

// resolveImage turns a drawing into an image block. The relationship id is
// looked up, in order, on the blip, on any alternate-content branch, in the
// serialized drawing, and finally, for text-box captioned drawings only,
// as the first image relationship no earlier image has used.
func (b *bodyParser) resolveImage(drawing *etree.Element, pos int) (*model.Image, error) {
	rels := b.r.rels

	relID := ""
	if blip := drawing.FindElement(".//blip"); blip != nil {
		relID = blip.SelectAttrValue("embed", "")
		if relID == "" {
			relID = blip.SelectAttrValue("link", "")
		}
	}

	alt := drawingDescription(drawing)
	boxCaption := textBoxCaption(drawing)

	if relID == "" {
		relID = relIDFromAlternateContent(drawing, rels.Images)
	}
	if relID == "" {
		raw := serialize(drawing)
		for _, id := range rels.ImageOrder {
			if strings.Contains(raw, `"`+id+`"`) {
				relID = id
				break
			}
		}
	}
	if relID == "" && boxCaption != "" {
		for _, id := range rels.ImageOrder {
			if !b.consumed[id] {
				relID = id
				b.logger.Debug("image matched to unused relationship", "position", pos, "rel", id)
				break
			}
		}
	}

	target, ok := rels.Images[relID]
	if !ok {
		return nil, errNoImageRelationship
	}
	if !strings.HasPrefix(target, mediaTargetRoot) {
		return nil, fmt.Errorf("image target %q is outside the media folder", target)
	}
	src := filepath.Join(b.r.dir, "word", filepath.FromSlash(target))
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("media file %s: %w", target, err)
	}

	copied, err := media.CopyUnique(src, b.r.config.MediaDir)
	if err != nil {
		return nil, err
	}
	b.consumed[relID] = true

	img := &model.Image{
		SourcePath:     copied,
		OriginalTarget: target,
		RelID:          relID,
		AltText:        alt,
		Caption:        alt,
		Pos:            pos,
	}
	if boxCaption != "" {
		img.Caption = boxCaption
	}

	width, height := 0, 0
	if dims, err := media.Dimensions(copied); err == nil {
		img.Dimensions = &dims
		width, height = dims.Width, dims.Height
	} else {
		b.logger.Debug("image dimensions unavailable", "position", pos, "error", err)
	}
	img.Display, img.FloatAlignment = imageDisplay(drawing, width, height)

	b.logger.Debug("image resolved", "position", pos, "rel", relID, "target", target, "display", img.Display)
	return img, nil
}

// drawingDescription returns the drawing's alt text, discarding
// descriptions generated by AI tools.
func drawingDescription(drawing *etree.Element) string {
	docPr := drawing.FindElement(".//docPr")
	if docPr == nil {
		return ""
	}
	descr := docPr.SelectAttrValue("descr", "")
	lower := strings.ToLower(descr)
	if strings.Contains(lower, "generated") && (strings.Contains(lower, "ai") || strings.Contains(lower, "intelligence")) {
		return ""
	}
	return descr
}

// textBoxCaption returns the first text-box paragraph that is styled as a
// caption or reads like one ("Figure 3", "Obr. 2").
func textBoxCaption(drawing *etree.Element) string {
	for _, box := range drawing.FindElements(".//txbxContent") {
		for _, p := range box.FindElements(".//p") {
			text := plainText(p)
			if text == "" {
				continue
			}
			style := strings.ToLower(styleID(p))
			lead := strings.ToLower(strings.TrimSpace(text))
			if strings.Contains(style, "caption") || strings.Contains(style, "titulek") ||
				strings.HasPrefix(lead, "figure") || strings.HasPrefix(lead, "image") || strings.HasPrefix(lead, "obr") {
				return text
			}
		}
	}
	return ""
}

// relIDFromAlternateContent scans the alternate-content structure around a
// drawing (inside it, or the one that contains it) for an attribute named
// id or embed whose value is an image relationship.
func relIDFromAlternateContent(drawing *etree.Element, images map[string]string) string {
	var scopes []*etree.Element
	scopes = append(scopes, drawing.FindElements(".//AlternateContent")...)
	for e := drawing.Parent(); e != nil; e = e.Parent() {
		if e.Tag == "AlternateContent" {
			scopes = append(scopes, e)
			break
		}
		if e.Tag == "p" || e.Tag == "body" {
			break
		}
	}

	for _, scope := range scopes {
		for _, e := range append([]*etree.Element{scope}, scope.FindElements(".//*")...) {
			for _, a := range e.Attr {
				if a.Key != "id" && a.Key != "embed" {
					continue
				}
				if _, ok := images[a.Value]; ok {
					return a.Value
				}
			}
		}
	}
	return ""
}

// imageDisplay picks the layout for an image from its size and the
// drawing's wrapping. Floated images default to the end side unless the
// drawing is positioned against the left or right.
func imageDisplay(drawing *etree.Element, width, height int) (model.Display, model.Alignment) {
	wrapped := false
	for _, marker := range wrapMarkers {
		if drawing.FindElement(".//"+marker) != nil {
			wrapped = true
			break
		}
	}

	side := defaultFloatSide
	if posH := drawing.FindElement(".//positionH"); posH != nil {
		if align := posH.SelectElement("align"); align != nil {
			switch strings.ToLower(strings.TrimSpace(align.Text())) {
			case "left":
				side = model.AlignStart
			case "right":
				side = model.AlignEnd
			}
		}
		switch posH.SelectAttrValue("relativeFrom", "") {
		case "right", "rightMargin":
			side = model.AlignEnd
		case "left", "leftMargin":
			side = model.AlignStart
		}
	}

	display := media.Display(width, height, wrapped)
	if display != model.DisplayFloat {
		return display, model.AlignNone
	}
	return display, side
}
