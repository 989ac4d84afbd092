package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tsawler/docstory/logging"
	"github.com/tsawler/docstory/model"
)

// DraftPrefix names the draft resource of a story.
const DraftPrefix = "draft_"

// Report summarises a publish run.
type Report struct {
	ItemID        string
	Created       int
	Skipped       int
	Replacements  int
	Deletions     int
	ImagesUpdated int
	DraftUpdated  bool
}

// Publisher runs the two publish phases against one Platform.
type Publisher struct {
	platform    Platform
	logger      *slog.Logger
	journal     Journal
	description string
	documentOut io.Writer
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithJournal records placements after Place and clears them after a
// successful Patch.
func WithJournal(j Journal) Option {
	return func(p *Publisher) { p.journal = j }
}

// WithDescription adds a paragraph with the given text before the first
// block. It is created with its content, not a marker.
func WithDescription(text string) Option {
	return func(p *Publisher) { p.description = text }
}

// WithDocumentOutput receives the patched document JSON.
func WithDocumentOutput(w io.Writer) Option {
	return func(p *Publisher) { p.documentOut = w }
}

// New returns a Publisher for the platform.
func New(platform Platform, opts ...Option) *Publisher {
	p := &Publisher{platform: platform, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish places the blocks, saves the story and patches it.
func (p *Publisher) Publish(ctx context.Context, blocks []model.Block) (*Report, error) {
	pm, err := p.Place(ctx, blocks)
	if err != nil {
		return nil, err
	}
	itemID := p.platform.ItemID()
	if p.journal != nil {
		if err := p.journal.Record(ctx, itemID, pm); err != nil {
			p.logger.Warn("placements not journaled", "item", itemID, "error", err)
		}
	}

	report, err := p.Patch(ctx, pm)
	if report != nil {
		report.Created = pm.Len()
		report.Skipped = pm.Skipped
	}
	if err != nil {
		return report, err
	}

	if p.journal != nil {
		if err := p.journal.Clear(ctx, itemID); err != nil {
			p.logger.Warn("journal not cleared", "item", itemID, "error", err)
		}
	}
	return report, nil
}

// Place creates one node per block in order and saves the story. Text and
// code blocks get marker content; images and tables are created with their
// real properties. Text and code without usable content are skipped.
func (p *Publisher) Place(ctx context.Context, blocks []model.Block) (*PlaceholderMap, error) {
	pm := NewPlaceholderMap()

	if p.description != "" {
		if _, err := p.platform.CreateTextNode(ctx, p.description, model.TextParagraph); err != nil {
			return nil, fmt.Errorf("creating description node: %w", err)
		}
	}

	for i, b := range blocks {
		placement, ok, err := p.place(ctx, i, b)
		if err != nil {
			return nil, fmt.Errorf("placing block %d (%s): %w", i, b.Type(), err)
		}
		if !ok {
			pm.Skipped++
			p.logger.Info("skipping empty block", "index", i, "type", b.Type().String())
			continue
		}
		pm.Add(placement)
		p.logger.Log(ctx, logging.LevelTrace, "placed block", "index", i, "type", b.Type().String(), "node", placement.NodeID)
	}

	if err := p.platform.Save(ctx); err != nil {
		return nil, fmt.Errorf("saving story: %w", err)
	}
	p.logger.Info("story saved", "item", p.platform.ItemID(), "nodes", pm.Len(), "skipped", pm.Skipped)
	p.logCounts(pm)
	return pm, nil
}

func (p *Publisher) place(ctx context.Context, i int, b model.Block) (Placement, bool, error) {
	var (
		id     string
		marker string
		err    error
	)
	switch v := b.(type) {
	case *model.Separator:
		id, err = p.platform.CreateSeparatorNode(ctx)
	case *model.Image:
		id, err = p.platform.CreateImageNode(ctx, ImageSpec{
			Path:           v.SourcePath,
			Caption:        v.Caption,
			AltText:        v.AltText,
			Display:        v.Display,
			FloatAlignment: v.FloatAlignment,
		})
	case *model.Table:
		rows, cols := v.NumRows(), v.NumColumns()
		if rows == 0 {
			cols = 2
		}
		id, err = p.platform.CreateTableNode(ctx, rows, cols, v.Caption)
	case *model.Text:
		if unusable(v.Markup) {
			return Placement{}, false, nil
		}
		marker = TextMarker(i)
		id, err = p.platform.CreateTextNode(ctx, marker, v.Kind)
	case *model.Code:
		if unusable(v.Content) {
			return Placement{}, false, nil
		}
		marker = CodeMarker(i)
		id, err = p.platform.CreateTextNode(ctx, marker, model.TextParagraph)
	default:
		return Placement{}, false, fmt.Errorf("unsupported block %T", b)
	}
	if err != nil {
		return Placement{}, false, err
	}
	return Placement{NodeID: id, Marker: marker, Block: b}, true, nil
}

func (p *Publisher) logCounts(pm *PlaceholderMap) {
	counts := make(map[model.BlockType]int)
	for _, pl := range pm.Placements() {
		counts[pl.Block.Type()]++
	}
	parts := make([]string, 0, len(counts))
	for _, t := range []model.BlockType{model.BlockTypeText, model.BlockTypeImage, model.BlockTypeTable, model.BlockTypeCode, model.BlockTypeSeparator} {
		if counts[t] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[t], t))
		}
	}
	p.logger.Info("content blocks by type", "counts", strings.Join(parts, ", "))
}
