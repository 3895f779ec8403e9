// Package snapshot serializes sealed segment contents to a compact,
// checksummed binary format and restores them into fresh in-memory
// segments. Blocks are individually compressed (none, lz4 or zstd) and
// the whole stream is guarded by a CRC32 footer. Save and Load connect
// the format to a blobstore.Store.
package snapshot
