// Package transcription turns audio drops into inbox text files.
package transcription

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var AudioExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
	".m4a": true,
	".ogg": true,
}

func IsAudio(name string) bool {
	return AudioExtensions[strings.ToLower(filepath.Ext(name))]
}

// TranscriptName is the inbox filename a transcript of audioPath ends up under.
func TranscriptName(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_transcricao.txt"
}

type Transcriber interface {
	// Transcribe returns the path of the text file written into the inbox.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ScriptTranscriber shells out to a whisper script that writes
// <stem>_transcricao.txt next to the audio; the result is moved into the inbox.
type ScriptTranscriber struct {
	Python    string
	Script    string
	InboxPath string
	Run       func(ctx context.Context, name string, args ...string) error
}

var _ Transcriber = (*ScriptTranscriber)(nil)

func NewScriptTranscriber(python, script, inboxPath string) *ScriptTranscriber {
	if python == "" {
		python = "python3"
	}
	return &ScriptTranscriber{
		Python:    python,
		Script:    script,
		InboxPath: inboxPath,
		Run: func(ctx context.Context, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...)
			cmd.Env = append(os.Environ(), "NO_PROXY=localhost")
			return cmd.Run()
		},
	}
}

func (s *ScriptTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if s.Script == "" {
		return "", fmt.Errorf("transcriber script not configured")
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file not found: %s", audioPath)
	}

	if err := s.Run(ctx, s.Python, s.Script, audioPath); err != nil {
		return "", fmt.Errorf("transcription script failed: %w", err)
	}

	name := TranscriptName(audioPath)
	produced := filepath.Join(filepath.Dir(audioPath), name)
	if _, err := os.Stat(produced); err != nil {
		return "", fmt.Errorf("transcription output not found at: %s", produced)
	}

	dest := filepath.Join(s.InboxPath, name)
	if produced == dest {
		return dest, nil
	}
	if err := os.Rename(produced, dest); err != nil {
		return "", fmt.Errorf("move transcription to inbox: %w", err)
	}
	return dest, nil
}
