package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tsawler/docstory/media"
	"github.com/tsawler/docstory/model"
	"github.com/tsawler/docstory/publish"
	"github.com/tsawler/docstory/storymap"
)

// ItemType is the portal item type of a story.
const ItemType = "StoryMap"

var typeKeywords = []string{"JavaScript", "smstatusdraft", "Story Map", "storymap"}

var errAttached = errors.New("story is attached to a saved item and cannot take new nodes")

// StoryOptions describes a new story.
type StoryOptions struct {
	Title   string
	Summary string
	Tags    []string

	// CoverImage is re-encoded as JPEG and shown on the cover. A cover
	// image that cannot be read leaves the cover without an image.
	CoverImage string

	// TempDir receives the re-encoded cover image. Defaults to os.TempDir().
	TempDir string

	Logger *slog.Logger
}

// Story builds a story document locally and saves it through a Client.
// It implements publish.Platform.
type Story struct {
	client  *Client
	logger  *slog.Logger
	opts    StoryOptions
	doc     *storymap.Document
	uploads []pendingUpload
	itemID  string
	now     func() time.Time
}

var _ publish.Platform = (*Story)(nil)

type pendingUpload struct {
	name string
	path string
}

// NewStory starts a story with a cover holding the title and summary.
func NewStory(client *Client, opts StoryOptions) *Story {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	s := &Story{
		client: client,
		logger: opts.Logger,
		opts:   opts,
		doc:    storymap.New(),
		now:    time.Now,
	}
	s.doc.Nodes[s.doc.Root].SetData("title", opts.Title)
	s.addCover()
	return s
}

// Attach returns a Story bound to an already saved item. It can patch the
// item but not create nodes.
func Attach(client *Client, itemID string, logger *slog.Logger) *Story {
	if logger == nil {
		logger = slog.Default()
	}
	return &Story{client: client, logger: logger, itemID: itemID, now: time.Now}
}

func (s *Story) addCover() {
	cover := &storymap.Node{
		Type: storymap.TypeCover,
		Data: map[string]any{
			"type":    "full",
			"title":   s.opts.Title,
			"summary": s.opts.Summary,
			"byline":  "",
		},
	}
	if s.opts.CoverImage != "" {
		if id, err := s.coverImage(); err != nil {
			s.logger.Warn("cover image not used", "path", s.opts.CoverImage, "error", err)
		} else {
			cover.SetData("media", id)
		}
	}
	id := s.doc.AddNode(cover)
	s.doc.AppendChild(s.doc.Root, id)
}

func (s *Story) coverImage() (string, error) {
	name := fmt.Sprintf("coverimage_%s.jpg", s.now().Format("20060102150405"))
	dst := filepath.Join(s.opts.TempDir, name)
	dims, err := media.ToJPEG(s.opts.CoverImage, dst)
	if err != nil {
		return "", err
	}
	s.logger.Info("cover image prepared", "width", dims.Width, "height", dims.Height)
	rid := s.addImageResource(name, dst, &dims)
	return s.doc.AddNode(&storymap.Node{
		Type:   storymap.TypeImage,
		Data:   map[string]any{"image": rid},
		Config: map[string]any{"size": string(model.DisplayStandard)},
	}), nil
}

func (s *Story) addImageResource(name, path string, dims *model.Dimensions) string {
	data := map[string]any{"resourceId": name, "provider": "item-resource"}
	if dims != nil {
		data["width"] = dims.Width
		data["height"] = dims.Height
	}
	s.uploads = append(s.uploads, pendingUpload{name: name, path: path})
	return s.doc.AddResource(&storymap.Resource{Type: storymap.TypeImage, Data: data})
}

// appendNode adds a content node after the existing ones.
func (s *Story) appendNode(n *storymap.Node) (string, error) {
	if s.doc == nil {
		return "", errAttached
	}
	id := s.doc.AddNode(n)
	return id, s.doc.AppendChild(s.doc.Root, id)
}

func (s *Story) CreateTextNode(_ context.Context, content string, kind model.TextKind) (string, error) {
	return s.appendNode(&storymap.Node{
		Type: storymap.TypeText,
		Data: map[string]any{"text": content, "type": string(kind)},
	})
}

// CreateImageNode queues the image file for upload and adds a node
// referencing it. Dimensions are filled in by the patch phase.
func (s *Story) CreateImageNode(_ context.Context, spec publish.ImageSpec) (string, error) {
	if s.doc == nil {
		return "", errAttached
	}
	if _, err := os.Stat(spec.Path); err != nil {
		return "", fmt.Errorf("image file: %w", err)
	}
	display := spec.Display
	if display == "" {
		display = model.DisplayStandard
	}
	rid := s.addImageResource(filepath.Base(spec.Path), spec.Path, nil)
	data := map[string]any{"image": rid}
	if spec.Caption != "" {
		data["caption"] = spec.Caption
	}
	if spec.AltText != "" {
		data["alt"] = spec.AltText
	}
	return s.appendNode(&storymap.Node{
		Type:   storymap.TypeImage,
		Data:   data,
		Config: map[string]any{"size": string(display)},
	})
}

func (s *Story) CreateTableNode(_ context.Context, rows, cols int, caption string) (string, error) {
	data := map[string]any{"numRows": rows, "numColumns": cols, "cells": map[string]any{}}
	if caption != "" {
		data["caption"] = caption
	}
	return s.appendNode(&storymap.Node{Type: storymap.TypeTable, Data: data})
}

func (s *Story) CreateSeparatorNode(context.Context) (string, error) {
	return s.appendNode(&storymap.Node{Type: storymap.TypeSeparator})
}

// Save creates the item, uploads the queued images and writes the draft
// resource.
func (s *Story) Save(ctx context.Context) error {
	if s.doc == nil {
		return errAttached
	}
	data, err := s.doc.Marshal()
	if err != nil {
		return fmt.Errorf("encoding story: %w", err)
	}
	itemID, err := s.client.AddItem(ctx, ItemSpec{
		Title:        s.opts.Title,
		Type:         ItemType,
		Tags:         s.opts.Tags,
		TypeKeywords: typeKeywords,
		Snippet:      s.opts.Summary,
		Data:         data,
	})
	if err != nil {
		return err
	}
	s.itemID = itemID
	s.logger.Info("story item created", "item", itemID, "nodes", len(s.doc.Nodes))

	for _, u := range s.uploads {
		file, err := os.ReadFile(u.path)
		if err != nil {
			return fmt.Errorf("reading image %s: %w", u.name, err)
		}
		if err := s.client.AddResource(ctx, itemID, u.name, file); err != nil {
			return err
		}
		s.logger.Debug("image uploaded", "resource", u.name, "bytes", len(file))
	}

	draft := fmt.Sprintf("%s%d.json", publish.DraftPrefix, s.now().UnixMilli())
	if err := s.client.AddResource(ctx, itemID, draft, data); err != nil {
		return err
	}
	s.logger.Debug("draft resource written", "resource", draft)
	return nil
}

func (s *Story) ItemID() string { return s.itemID }

func (s *Story) ListResources(ctx context.Context) ([]string, error) {
	return s.client.Resources(ctx, s.itemID)
}

func (s *Story) FetchResource(ctx context.Context, name string) ([]byte, error) {
	return s.client.Resource(ctx, s.itemID, name)
}

func (s *Story) FetchItemData(ctx context.Context) ([]byte, error) {
	return s.client.ItemData(ctx, s.itemID)
}

func (s *Story) ReplaceItemData(ctx context.Context, data []byte) error {
	return s.client.UpdateItemData(ctx, s.itemID, data)
}

func (s *Story) UploadResource(ctx context.Context, name string, data []byte) error {
	return s.client.UpdateResource(ctx, s.itemID, name, data)
}
