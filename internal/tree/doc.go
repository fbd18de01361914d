// Package tree implements the in-memory model of a cask store: a hierarchy
// of directories, single-line files and lazily resolved symlinks.
//
// # Ownership
//
// All nodes live in one arena owned by FS and are addressed by Handle. Each
// node records the handle of the directory that contains it, which is what
// the synthetic ".." entry resolves to; the root's parent handle is its own.
// Directories map entry names to handles, so the structural graph is a tree
// even though symlink targets (plain path strings) may describe cycles.
//
// # Resolution
//
// Resolve walks a path one component at a time. A symlink met before the
// last component is replaced by whatever its target resolves to, relative
// to the directory holding the link. ".." always follows the live parent
// handle of the node reached so far, so a directory reached through a link
// still climbs to its real parent. The last component is only followed when
// the caller asks for it: Lookup returns the link itself (rm, mv), Stat the
// thing it points to (cat, ls).
//
// # Mutation
//
// Every mutating method validates completely before changing anything, then
// re-stamps the affected node and every directory whose entry set changed.
// Remove is the exception to all-or-nothing: each path is applied
// independently and failures are joined into one error.
package tree
