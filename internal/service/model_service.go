package service

import (
	"context"
	"fmt"
	"slices"

	"ideawalker-core/internal/config"
	"ideawalker-core/internal/pkg/logger"
)

// ModelGateway is the part of llm.Gateway that model selection needs.
type ModelGateway interface {
	ListModels(ctx context.Context) []string
	CurrentModel() string
	SetModel(model string)
	AutoSelectModel(ctx context.Context) string
}

type IModelService interface {
	List(ctx context.Context) []string
	Current() string
	// Select switches to an installed model and persists the choice.
	Select(ctx context.Context, model string) error
	AutoSelect(ctx context.Context) string
}

type modelService struct {
	gateway      ModelGateway
	settingsPath string
	logger       logger.ILogger
}

func NewModelService(gateway ModelGateway, settingsPath string, log logger.ILogger) IModelService {
	return &modelService{gateway: gateway, settingsPath: settingsPath, logger: log}
}

func (s *modelService) List(ctx context.Context) []string {
	return s.gateway.ListModels(ctx)
}

func (s *modelService) Current() string {
	return s.gateway.CurrentModel()
}

func (s *modelService) Select(ctx context.Context, model string) error {
	available := s.gateway.ListModels(ctx)
	if !slices.Contains(available, model) {
		return fmt.Errorf("model %q is not installed", model)
	}
	s.gateway.SetModel(model)

	settings, err := config.LoadSettings(s.settingsPath)
	if err != nil {
		settings = &config.Settings{}
	}
	settings.AIModel = model
	if err := config.SaveSettings(s.settingsPath, settings); err != nil {
		return fmt.Errorf("persist model choice: %w", err)
	}
	s.logger.Info("Models", "Model selected", map[string]interface{}{"model": model})
	return nil
}

func (s *modelService) AutoSelect(ctx context.Context) string {
	return s.gateway.AutoSelectModel(ctx)
}
