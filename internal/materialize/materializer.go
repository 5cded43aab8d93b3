package materialize

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"supportflow/internal/config"
	"supportflow/internal/domain"
)

// Artifact filenames written into each spec folder.
const (
	specFileName         = "spec.md"
	metadataFileName     = "task_metadata.json"
	requirementsFileName = "requirements.json"
	consoleLogsFileName  = "console_logs.json"
	screenshotsDirName   = "screenshots"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// Materializer writes queued tasks to disk as numbered spec folders.
type Materializer struct {
	registry *config.Registry
}

// New creates a materializer resolving target roots through the registry.
func New(registry *config.Registry) *Materializer {
	return &Materializer{registry: registry}
}

// Materialize converts one task into a spec folder and returns the folder
// name. The spec, metadata and requirements documents must all be written for
// the task to count as materialized; screenshot decode failures are logged
// and skipped without failing the task.
func (m *Materializer) Materialize(t *domain.Task) (string, error) {
	root := m.registry.SpecsDir(t.ProjectID)

	number, err := NextNumber(root)
	if err != nil {
		return "", fmt.Errorf("allocate spec number: %w", err)
	}

	slug := Slug(t.Title)
	if slug == "" {
		slug = "untitled"
	}

	folderName := number + "-" + slug
	folder := filepath.Join(root, folderName)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("create spec folder: %w", err)
	}

	spec := RenderSpec(t, number)
	if err := os.WriteFile(filepath.Join(folder, specFileName), []byte(spec), 0644); err != nil {
		return "", fmt.Errorf("write spec document: %w", err)
	}

	if err := writeJSON(filepath.Join(folder, metadataFileName), RenderMetadata(t)); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	if err := writeJSON(filepath.Join(folder, requirementsFileName), RenderRequirements(t)); err != nil {
		return "", fmt.Errorf("write requirements: %w", err)
	}

	if len(t.ConsoleLogs) > 0 {
		artifact := ConsoleLogArtifact{
			CapturedAt: time.Now().UTC().Format(time.RFC3339),
			PageURL:    "unknown",
			UserAgent:  "unknown",
			Logs:       t.ConsoleLogs,
		}
		if t.PageInfo != nil {
			if t.PageInfo.Timestamp != "" {
				artifact.CapturedAt = t.PageInfo.Timestamp
			}
			if t.PageInfo.URL != "" {
				artifact.PageURL = t.PageInfo.URL
			}
			if t.PageInfo.UserAgent != "" {
				artifact.UserAgent = t.PageInfo.UserAgent
			}
		}
		if err := writeJSON(filepath.Join(folder, consoleLogsFileName), artifact); err != nil {
			return "", fmt.Errorf("write console logs: %w", err)
		}
	}

	if saved := m.saveScreenshots(t, folder); saved > 0 {
		slog.Info("Screenshots saved", "task_id", t.ID, "count", saved)
	}

	return folderName, nil
}

// saveScreenshots decodes and writes each screenshot, preserving submission
// order via the stored index. A per-image failure is logged and skipped; it
// never aborts the remaining images or the task.
func (m *Materializer) saveScreenshots(t *domain.Task, folder string) int {
	if len(t.Screenshots) == 0 {
		return 0
	}

	dir := filepath.Join(folder, screenshotsDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("Failed to create screenshots folder", "error", err, "task_id", t.ID)
		return 0
	}

	saved := 0
	for _, shot := range t.Screenshots {
		raw, err := decodeScreenshot(shot.Data)
		if err != nil {
			slog.Error("Failed to decode screenshot, skipping", "error", err, "task_id", t.ID, "index", shot.Index)
			continue
		}

		name := fmt.Sprintf("screenshot-%d.png", shot.Index)
		if err := os.WriteFile(filepath.Join(dir, name), raw, 0644); err != nil {
			slog.Error("Failed to write screenshot, skipping", "error", err, "task_id", t.ID, "index", shot.Index)
			continue
		}
		saved++
	}
	return saved
}

// decodeScreenshot strips an optional data URL media-type prefix and decodes
// the base64 payload.
func decodeScreenshot(data string) ([]byte, error) {
	payload := dataURLPrefix.ReplaceAllString(data, "")
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return raw, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
