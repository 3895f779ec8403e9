// Package blobstore abstracts the storage of immutable segment snapshot
// blobs. The in-memory store serves tests; the minio subpackage targets
// MinIO and other S3-compatible object stores.
package blobstore
