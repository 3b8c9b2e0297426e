package storage

import (
	"fmt"
	"strings"
)

// AllowedContentTypes lists the document types the pipeline stores.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"text/html":       true,
}

// ValidateContentType checks if the content type is allowed.
func (s *MinIOService) ValidateContentType(contentType string) error {
	if !IsAllowedContentType(contentType) {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks if the file size is within limits.
func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	return validateSize(sizeBytes, s.maxFileSize)
}

// IsAllowedContentType reports whether contentType, ignoring parameters
// such as charset, may be stored.
func IsAllowedContentType(contentType string) bool {
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))
	return AllowedContentTypes[normalized]
}

func validateSize(sizeBytes, maxSize int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if maxSize > 0 && sizeBytes > maxSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxSize)
	}
	return nil
}
