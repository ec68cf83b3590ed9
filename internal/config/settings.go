package config

import (
	"encoding/json"
	"fmt"
	"os"

	"ideawalker-core/internal/pkg/fsutil"
)

// Settings mirrors the project-level settings.json.
type Settings struct {
	VideoDriver string `json:"video_driver,omitempty"`
	AIModel     string `json:"ai_model,omitempty"`
}

func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return &s, nil
}

func SaveSettings(path string, s *Settings) error {
	return fsutil.WriteJSON(path, s)
}
