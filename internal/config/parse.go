package config

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	truthy = map[string]bool{"1": true, "t": true, "true": true, "y": true, "yes": true, "on": true}
	falsy  = map[string]bool{"0": true, "f": true, "false": true, "n": true, "no": true, "off": true}
)

// ParseBool parses a truthy-string boolean.
// Accepted values are 1/t/true/y/yes/on and 0/f/false/n/no/off, case-insensitive.
func ParseBool(s string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case truthy[v]:
		return true, nil
	case falsy[v]:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", ErrMalformedValue, s)
	}
}

// ParseList splits a comma-separated value, trimming items and dropping empty ones.
func ParseList(s string) []string {
	items := strings.Split(s, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseInt parses a base-10 integer.
func ParseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedValue, s)
	}
	return n, nil
}

// NormalizeStorageBackend maps a configured backend name to a backend kind.
// The Django storage class names are accepted as aliases.
func NormalizeStorageBackend(s string) (string, error) {
	switch strings.TrimSpace(s) {
	case BackendS3, "storages.backends.s3boto3.S3Boto3Storage", "storages.backends.s3.S3Storage":
		return BackendS3, nil
	case BackendFilesystem, "django.core.files.storage.FileSystemStorage":
		return BackendFilesystem, nil
	default:
		return "", fmt.Errorf("%w: unknown storage backend %q", ErrMalformedValue, s)
	}
}
