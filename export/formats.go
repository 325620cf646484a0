package export

import (
	"fmt"
	"sort"
	"strings"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatAlloy produces an Alloy module (.als).
	FormatAlloy Format = "alloy"

	// FormatJSON produces a JSON document (.json).
	FormatJSON Format = "json"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the MIME type of the output.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatAlloy: {
		Name:        FormatAlloy,
		MIMEType:    "text/x-alloy",
		Extension:   ".als",
		Description: "Alloy module with preamble, signatures and facts",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "Signatures and rendered facts as JSON",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat maps a format name, case-insensitively, to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := FormatRegistry[f]; !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, name, strings.Join(FormatNames(), ", "))
	}
	return f, nil
}

// FormatNames returns the supported format names, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// FormatForPath picks the format whose extension matches path, or
// FormatAlloy when none does.
func FormatForPath(path string) Format {
	for f, info := range FormatRegistry {
		if strings.HasSuffix(path, info.Extension) {
			return f
		}
	}
	return FormatAlloy
}
