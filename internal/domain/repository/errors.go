package repository

import "errors"

var (
	// ErrObjectNotFound is returned when an object is absent from storage.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrMediaNotFound is returned when the catalog has no entry for a key.
	ErrMediaNotFound = errors.New("media not found")

	// ErrDuplicateMedia is returned when a catalog entry for the key already exists.
	ErrDuplicateMedia = errors.New("media already exists")
)
