package service

import (
	"context"
	"path/filepath"
	"testing"

	"ideawalker-core/internal/config"
	"ideawalker-core/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	installed []string
	model     string
}

func (g *fakeGateway) ListModels(ctx context.Context) []string { return g.installed }
func (g *fakeGateway) CurrentModel() string                    { return g.model }
func (g *fakeGateway) SetModel(model string)                   { g.model = model }
func (g *fakeGateway) AutoSelectModel(ctx context.Context) string {
	if len(g.installed) > 0 {
		g.model = g.installed[0]
	}
	return g.model
}

func TestModelServiceSelectPersistsChoice(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, config.SaveSettings(settingsPath, &config.Settings{VideoDriver: "x11"}))

	gw := &fakeGateway{installed: []string{"llama3", "mistral"}, model: "llama3"}
	svc := NewModelService(gw, settingsPath, logger.NewNopLogger())

	require.NoError(t, svc.Select(context.Background(), "mistral"))
	assert.Equal(t, "mistral", svc.Current())

	saved, err := config.LoadSettings(settingsPath)
	require.NoError(t, err)
	assert.Equal(t, &config.Settings{VideoDriver: "x11", AIModel: "mistral"}, saved)

	assert.Error(t, svc.Select(context.Background(), "gpt-9"))
	assert.Equal(t, "mistral", svc.Current())
}
