// Package minio implements blobstore.Store on top of MinIO and other
// S3-compatible object stores.
package minio
