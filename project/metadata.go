package project

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// knownKeys fixes the order of the well-known sidecar fields so the
// file stays diff-friendly across rewrites.
var knownKeys = []string{
	MetaName,
	MetaCreated,
	MetaOriginalFile,
	MetaLanguage,
	MetaProcessingTime,
}

// readMetadata parses the "Key: Value" sidecar. A missing file is an
// empty map, not an error.
func readMetadata(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read project metadata: %w", err)
	}

	meta := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		meta[key] = strings.TrimSpace(value)
	}
	return meta, nil
}

func formatMetadata(meta map[string]string) string {
	var b strings.Builder

	written := map[string]bool{}
	for _, key := range knownKeys {
		if value, ok := meta[key]; ok {
			fmt.Fprintf(&b, "%s: %s\n", key, value)
			written[key] = true
		}
	}

	var rest []string
	for key := range meta {
		if !written[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		fmt.Fprintf(&b, "%s: %s\n", key, meta[key])
	}

	return b.String()
}
