// Package converter renders fetched platform content into output files.
//
// Lesson pages and subject intros become Markdown documents: platform HTML
// is converted with a structural mapping (headings, paragraphs, emphasis,
// links, images, lists, quotes, code blocks and tables), attached photos
// and documents are referenced by their downloaded local copies, and
// anything outside that mapping degrades to plain text rather than failing
// the item. In JSON mode the raw payloads are re-encoded canonically with
// sorted keys and stable indentation. Documents and binary assets pass
// through untouched.
package converter
