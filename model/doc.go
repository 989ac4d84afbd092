// Package model provides the intermediate representation for extracted
// document content.
//
// Every extractor in this module (DOCX, HTML) produces an ordered slice of
// [Block] values, and the publish protocol consumes that slice. Blocks are
// self contained: each one carries everything needed to render it without
// looking at its neighbours.
//
// # Blocks
//
// All content implements the [Block] interface. The concrete types are:
//
//   - [Text] - headings, paragraphs, quotes and rendered lists, as inline markup
//   - [Image] - a media file copied out of the source document
//   - [Table] - a rectangular matrix of cell markup
//   - [Code] - a code snippet with a detected language tag
//   - [Separator] - a horizontal rule
//
// # Ordering
//
// Each block carries the index of the body element it came from
// ([Block.Position]). Extraction returns blocks sorted by that index, so the
// slice order is the reading order of the source document.
//
// # Serialisation
//
// [Envelope] is a flat, tagged form of a block used wherever blocks cross a
// process boundary (the placeholder journal, the extract command):
//
//	env := model.Encode(block)
//	back, err := env.Decode()
package model
