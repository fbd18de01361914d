// Package store persists a tree as an encrypted file and coordinates access
// to it between processes.
//
// # Store file
//
// The store is a single file holding the codec document encrypted by a
// Cipher, normally gpg in symmetric mode. Saves are atomic: the new content
// is written to a uniquely named temporary file in the same directory,
// synced, and renamed over the old one. A store path that is a symlink is
// resolved first so the link itself survives the rename.
//
// # Locking
//
// Exclusive access is claimed with a marker symlink next to the store file,
// named "<store>.lock" and pointing at "<user>@<host>.<pid>". Creating a
// symlink fails if the name exists, so acquisition is atomic. A held lock
// is never broken or waited on; the caller reports the owner and gives up.
package store
