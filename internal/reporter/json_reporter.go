package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSONReport writes the report as indented JSON, creating the parent directory.
func WriteJSONReport(reportData *Report, outputPath string) error {
	jsonData, err := json.MarshalIndent(reportData, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	return os.WriteFile(outputPath, jsonData, 0644)
}
