package generators

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitSize parses "WIDTHxHEIGHT".
func SplitSize(size string) (width, height int, err error) {
	parts := strings.Split(size, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q", size)
	}
	if width, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", size, err)
	}
	if height, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", size, err)
	}
	return width, height, nil
}

// baseURL picks the caller's override or the vendor default, without trailing slashes.
func baseURL(override, fallback string) string {
	base := override
	if base == "" {
		base = fallback
	}
	return strings.TrimRight(base, "/")
}

func modelOrDefault(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}

func dataURI(mimeType, b64 string) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + b64
}
