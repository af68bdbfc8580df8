// Package storage lays out and writes the downloaded content tree on disk.
//
// The Resolver turns material items into deterministic paths derived only
// from platform titles and IDs, so running the tool twice against the same
// subjects resolves to the same files. Titles are sanitized with Unicode
// letters preserved, and platform IDs keep sibling files collision-free
// even when titles repeat.
//
// The Writer performs atomic writes through a temporary file and rename,
// and skips writes whose content fingerprint matches what is already on
// disk. Interrupted runs therefore never leave partial files at final
// paths, and unchanged content keeps its timestamps.
package storage
