// Package layout rebuilds document structure that word processors store
// flat: lists and formatting-only headings.
//
// # Lists
//
// Word processing formats store a list as a run of ordinary paragraphs that
// each carry a numbering id and an indentation level. The [ListBuilder]
// regroups such items into list blocks in three stages:
//
//	b := layout.NewListBuilder()
//	groups, warnings := b.Group(pending)   // split into logical lists, one type each
//	groups = b.Flatten(groups)             // at most two levels, deeper items prefixed
//	markup, _ := b.Render(groups[0])       // <li>..<ul><li>..</li></ul></li>
//
// or in one call with [ListBuilder.Build]. [MergeByPosition] interleaves the
// resulting blocks with the rest of the document.
//
// # Headings
//
// [HeadingKindForSize] maps a uniform font size to a heading level for
// paragraphs that look like headings but carry no heading style.
package layout
