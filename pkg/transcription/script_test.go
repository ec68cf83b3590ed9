package transcription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptTranscriberMovesOutputIntoInbox(t *testing.T) {
	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	audioDir := filepath.Join(root, "audio")
	require.NoError(t, os.MkdirAll(inbox, 0o755))
	require.NoError(t, os.MkdirAll(audioDir, 0o755))

	audio := filepath.Join(audioDir, "memo.m4a")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	tr := NewScriptTranscriber("python3", "whisper.py", inbox)
	tr.Run = func(ctx context.Context, name string, args ...string) error {
		assert.Equal(t, "python3", name)
		assert.Equal(t, []string{"whisper.py", audio}, args)
		return os.WriteFile(filepath.Join(audioDir, "memo_transcricao.txt"), []byte("fala"), 0o644)
	}

	out, err := tr.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(inbox, "memo_transcricao.txt"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "fala", string(data))
}

func TestScriptTranscriberErrors(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "memo.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	tr := NewScriptTranscriber("", "", dir)
	_, err := tr.Transcribe(context.Background(), audio)
	assert.Error(t, err, "missing script")

	tr.Script = "s.py"
	_, err = tr.Transcribe(context.Background(), filepath.Join(dir, "missing.wav"))
	assert.Error(t, err)

	tr.Run = func(ctx context.Context, name string, args ...string) error { return errors.New("exit 1") }
	_, err = tr.Transcribe(context.Background(), audio)
	assert.Error(t, err)

	tr.Run = func(ctx context.Context, name string, args ...string) error { return nil }
	_, err = tr.Transcribe(context.Background(), audio)
	assert.Error(t, err, "script succeeded but produced nothing")
}

func TestIsAudio(t *testing.T) {
	assert.True(t, IsAudio("a.MP3"))
	assert.True(t, IsAudio("a.ogg"))
	assert.False(t, IsAudio("a.txt"))
	assert.Equal(t, "a_transcricao.txt", TranscriptName("/x/a.wav"))
}
