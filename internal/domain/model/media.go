package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MediaExtension is the fixed extension of every stored media key.
	MediaExtension = ".mp4"

	// MediaContentType is served for every media object.
	MediaContentType = "video/mp4"

	// MaxUploadSize is the upload ceiling in bytes (10 MiB).
	MaxUploadSize int64 = 10 * 1024 * 1024
)

var keyPattern = regexp.MustCompile(`^[a-f0-9-]+\.mp4$`)

// MediaObject describes a stored video. Its bytes are immutable once saved
// and its key is never reused.
type MediaObject struct {
	Key         string
	Size        int64
	ContentType string
	UploadedAt  time.Time
}

// NewMediaKey returns a fresh key made of a random (v4) UUID and MediaExtension.
func NewMediaKey() string {
	return uuid.NewString() + MediaExtension
}

// ValidateKey reports whether key has the shape produced by NewMediaKey.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return NewValidationError("Invalid filename format")
	}
	return nil
}

// ByteRange is an inclusive span [Start, End] of an object's bytes.
type ByteRange struct {
	Start int64
	End   int64
}

// Len returns the number of bytes covered by the range.
func (r ByteRange) Len() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the range as a Content-Range header value.
func (r ByteRange) ContentRange(size int64) string {
	return "bytes " + strconv.FormatInt(r.Start, 10) + "-" + strconv.FormatInt(r.End, 10) + "/" + strconv.FormatInt(size, 10)
}

// ParseRange parses a single-range Range header against an object of the given size.
//
// An empty header returns nil, nil and the caller serves the whole object.
// Accepted forms are "bytes=<start>-<end>" and "bytes=<start>-"; the open form
// resolves end to size-1 before bounds are checked. Everything else, including
// multi-range and suffix ("bytes=-N") requests, fails with ErrInvalidRange.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	rangeSet, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(rangeSet, ",") {
		return nil, ErrInvalidRange
	}

	startText, endText, ok := strings.Cut(rangeSet, "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	start, ok := parseOffset(startText)
	if !ok {
		return nil, ErrInvalidRange
	}

	end := size - 1
	if endText != "" {
		if end, ok = parseOffset(endText); !ok {
			return nil, ErrInvalidRange
		}
	}

	if start >= size || end >= size || start > end {
		return nil, ErrInvalidRange
	}

	return &ByteRange{Start: start, End: end}, nil
}

// parseOffset accepts only plain decimal digits, so signs, spaces and
// fractions are rejected rather than silently truncated.
func parseOffset(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidationOutcome is the result of sniffing an upload. Reason is empty when Valid.
type ValidationOutcome struct {
	Valid  bool
	Reason string
}
