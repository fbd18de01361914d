// Package codec converts a tree.FS to and from the JSON document that is
// stored, encrypted, on disk.
//
// A document has two mandatory top-level sections, "data" (the root
// directory) and "metadata" (store-wide metadata plus "format_version"),
// and may carry further sections this revision does not understand. Those
// are kept as raw bytes and written back unchanged.
//
// Every node is one of a fixed set of shapes:
//
//	file        "data"                      (legacy, no metadata)
//	            ["data", META]
//	directory   {"name": NODE, ...}         (legacy, no metadata)
//	            [{"name": NODE, ...}, META]
//	symlink     ["symlink", "target", META]
//
// where META is exactly {"mhost": string, "mtime": number, "mtzname": string}.
// Anything else is rejected as a corrupt store. Only documents whose
// format_version equals FormatVersion are accepted; older documents are
// upgraded by the migrate package, not here.
package codec
