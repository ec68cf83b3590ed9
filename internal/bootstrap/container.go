package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"ideawalker-core/internal/config"
	"ideawalker-core/internal/constant"
	"ideawalker-core/internal/controller"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/internal/repository/implementation"
	"ideawalker-core/internal/service"
	"ideawalker-core/internal/task"
	"ideawalker-core/pkg/embedding"
	"ideawalker-core/pkg/events"
	"ideawalker-core/pkg/extract"
	"ideawalker-core/pkg/llm"
	"ideawalker-core/pkg/llm/factory"
	"ideawalker-core/pkg/scientific"
	"ideawalker-core/pkg/transcription"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	Config  *config.Config
	Logger  logger.ILogger
	Gateway *llm.Gateway
	Tasks   *task.Manager

	// Controllers
	TaskController       controller.ITaskController
	PipelineController   controller.IPipelineController
	ModelController      controller.IModelController
	NoteController       controller.INoteController
	TrajectoryController controller.ITrajectoryController

	// Services, shared by the CLI and the API
	Thoughts            contract.ThoughtRepository
	OrganizerService    service.IOrganizerService
	ScientificService   service.IScientificService
	ObservationService  service.IObservationService
	ConversationService service.IConversationService
	SuggestionService   service.ISuggestionService
	WritingService      service.IWritingService
	ModelService        service.IModelService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	pubSub *gochannel.GoChannel
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	paths := cfg.Paths
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("prepare project layout: %w", err)
	}

	// 2. Event Bus
	// publishing waits for the consumer so a short CLI run loses no activity
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64, BlockPublishUntilSubscriberAck: true},
		watermill.NewStdLogger(false, false),
	)
	publisherService := service.NewPublisherService(pubSub)

	// 3. Gateway
	provider, err := factory.NewLLMProvider(cfg.Ai.Provider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, cfg.Ai.ReadTimeout, cfg.Ai.ListTimeout)
	if err != nil {
		return nil, err
	}
	gateway := llm.NewGateway(provider, sysLogger, cfg.Ai.LLMModel, cfg.Ai.EmbeddingModel)

	prompts, err := constant.LoadPromptCatalog(paths.PromptCatalogPath)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Prompt catalog override ignored", map[string]interface{}{
			"path":  paths.PromptCatalogPath,
			"error": err.Error(),
		})
		prompts = constant.NewPromptCatalog()
	}

	// 4. Repositories
	extractor := extract.NewFileExtractor(cfg.Tools.PdfToText, paths.TextCache)
	transcriber := transcription.NewScriptTranscriber(cfg.Tools.TranscriberPython, cfg.Tools.TranscriberScript, paths.Inbox)
	thoughts, err := implementation.NewFileRepository(
		paths.Inbox,
		paths.Notes,
		paths.History,
		paths.Observations,
		sysLogger,
		implementation.WithExtractor(extractor),
		implementation.WithTranscriber(transcriber),
		implementation.WithActivityLog(paths.ActivityLog),
	)
	if err != nil {
		return nil, err
	}
	observationRepo := implementation.NewObservationRepository(paths.Observations)
	eventStore := implementation.NewEventStore(filepath.Join(paths.Writing, "trajectories"), sysLogger)
	trajectoryRepo := implementation.NewTrajectoryRepository(eventStore, sysLogger)

	// 5. Services
	scientificService := service.NewScientificService(
		implementation.NewArtifactScanner(paths.ScientificInbox),
		extractor,
		gateway,
		scientific.NewLayout(paths.Observations, paths.Consumables),
		sysLogger,
	)
	organizerService := service.NewOrganizerService(
		thoughts,
		observationRepo,
		gateway,
		prompts,
		scientificService,
		publisherService,
		sysLogger,
	)
	observationService := service.NewObservationService(
		implementation.NewArtifactScanner(paths.Inbox),
		extractor,
		observationRepo,
		gateway,
		sysLogger,
	)
	conversationService := service.NewConversationService(thoughts, gateway, paths.Dialogues, sysLogger)

	embeddingCache := embedding.NewCache(paths.EmbeddingCache)
	if err := embeddingCache.Load(); err != nil {
		sysLogger.Warn("Bootstrap", "Embedding cache not loaded", map[string]interface{}{"error": err.Error()})
	}
	suggestionService := service.NewSuggestionService(thoughts, gateway, embeddingCache, sysLogger)

	writingService := service.NewWritingService(trajectoryRepo, publisherService, sysLogger)
	modelService := service.NewModelService(gateway, paths.Settings, sysLogger)
	consumerService := service.NewConsumerService(pubSub, events.TopicNotes, thoughts, sysLogger)

	tasks := task.NewManager(ctx, sysLogger)

	// 6. Controllers
	return &Container{
		Config:  cfg,
		Logger:  sysLogger,
		Gateway: gateway,
		Tasks:   tasks,

		TaskController:       controller.NewTaskController(tasks, sysLogger),
		PipelineController:   controller.NewPipelineController(tasks, organizerService, observationService, scientificService, thoughts),
		ModelController:      controller.NewModelController(modelService),
		NoteController:       controller.NewNoteController(thoughts, suggestionService),
		TrajectoryController: controller.NewTrajectoryController(writingService),

		Thoughts:            thoughts,
		OrganizerService:    organizerService,
		ScientificService:   scientificService,
		ObservationService:  observationService,
		ConversationService: conversationService,
		SuggestionService:   suggestionService,
		WritingService:      writingService,
		ModelService:        modelService,

		ConsumerService: consumerService,

		pubSub: pubSub,
	}, nil
}

// Close waits for running tasks, persists caches and releases the bus.
func (c *Container) Close() error {
	c.Tasks.Wait()
	if err := c.SuggestionService.Shutdown(); err != nil {
		c.Logger.Warn("Bootstrap", "Embedding cache not persisted", map[string]interface{}{"error": err.Error()})
	}
	err := c.pubSub.Close()
	// syncing a console sink reports EINVAL on most platforms
	_ = c.Logger.Sync()
	return err
}
