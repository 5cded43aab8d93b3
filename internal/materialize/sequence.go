package materialize

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// seqFileName holds the last allocated number inside each target root, so
// numbers survive folder deletions and are never reused.
const seqFileName = ".spec-seq"

var numberedDir = regexp.MustCompile(`^(\d{3})-`)

// NextNumber allocates the next sequential spec number for root, zero-padded
// to 3 digits. The counter file is reconciled with the highest numbered
// directory already present (covering roots created before the counter
// existed) and persisted before the caller creates the directory. The
// allocation is still scan-then-write, not a claim: concurrent materializers
// against the same root can race, and single-consumer deployment per root is
// the documented mitigation.
func NextNumber(root string) (string, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("create target root: %w", err)
	}

	last := 0
	seqPath := filepath.Join(root, seqFileName)
	if data, err := os.ReadFile(seqPath); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && n > last {
			last = n
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("scan target root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if m := numberedDir.FindStringSubmatch(entry.Name()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > last {
				last = n
			}
		}
	}

	next := last + 1
	if err := os.WriteFile(seqPath, []byte(strconv.Itoa(next)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("persist sequence counter: %w", err)
	}

	return fmt.Sprintf("%03d", next), nil
}
