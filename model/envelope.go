package model

import "fmt"

// Envelope is the flat, tagged form of a Block.
type Envelope struct {
	Type           string     `json:"type" yaml:"type"`
	Position       int        `json:"position" yaml:"position"`
	Kind           string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Markup         string     `json:"markup,omitempty" yaml:"markup,omitempty"`
	Alignment      string     `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	SourcePath     string     `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	OriginalTarget string     `json:"original_target,omitempty" yaml:"original_target,omitempty"`
	RelID          string     `json:"rel_id,omitempty" yaml:"rel_id,omitempty"`
	Caption        string     `json:"caption,omitempty" yaml:"caption,omitempty"`
	AltText        string     `json:"alt,omitempty" yaml:"alt,omitempty"`
	Display        string     `json:"display,omitempty" yaml:"display,omitempty"`
	FloatAlignment string     `json:"float_alignment,omitempty" yaml:"float_alignment,omitempty"`
	Width          int        `json:"width,omitempty" yaml:"width,omitempty"`
	Height         int        `json:"height,omitempty" yaml:"height,omitempty"`
	Rows           [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	Content        string     `json:"content,omitempty" yaml:"content,omitempty"`
	Language       string     `json:"language,omitempty" yaml:"language,omitempty"`
}

// Encode converts a block to its envelope form.
func Encode(b Block) Envelope {
	env := Envelope{Type: b.Type().String(), Position: b.Position()}
	switch v := b.(type) {
	case *Text:
		env.Kind = string(v.Kind)
		env.Markup = v.Markup
		env.Alignment = string(v.Alignment)
	case *Image:
		env.SourcePath = v.SourcePath
		env.OriginalTarget = v.OriginalTarget
		env.RelID = v.RelID
		env.Caption = v.Caption
		env.AltText = v.AltText
		env.Display = string(v.Display)
		env.FloatAlignment = string(v.FloatAlignment)
		if v.Dimensions != nil {
			env.Width = v.Dimensions.Width
			env.Height = v.Dimensions.Height
		}
	case *Table:
		env.Rows = v.Rows
		env.Caption = v.Caption
	case *Code:
		env.Content = v.Content
		env.Language = v.Language
	}
	return env
}

// EncodeAll encodes every block in order.
func EncodeAll(blocks []Block) []Envelope {
	out := make([]Envelope, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, Encode(b))
	}
	return out
}

// Decode converts the envelope back into a block.
func (e Envelope) Decode() (Block, error) {
	switch e.Type {
	case "text":
		return &Text{
			Kind:      TextKind(e.Kind),
			Markup:    e.Markup,
			Alignment: Alignment(e.Alignment),
			Pos:       e.Position,
		}, nil
	case "image":
		img := &Image{
			SourcePath:     e.SourcePath,
			OriginalTarget: e.OriginalTarget,
			RelID:          e.RelID,
			Caption:        e.Caption,
			AltText:        e.AltText,
			Display:        Display(e.Display),
			FloatAlignment: Alignment(e.FloatAlignment),
			Pos:            e.Position,
		}
		if e.Width > 0 || e.Height > 0 {
			img.Dimensions = &Dimensions{Width: e.Width, Height: e.Height}
		}
		return img, nil
	case "table":
		return &Table{Rows: e.Rows, Caption: e.Caption, Pos: e.Position}, nil
	case "code":
		return &Code{Content: e.Content, Language: e.Language, Pos: e.Position}, nil
	case "separator":
		return &Separator{Pos: e.Position}, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", e.Type)
	}
}
