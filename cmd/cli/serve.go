package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/controllers"
	"github.com/flowsmith/flowsmith/internal/server"
	"github.com/flowsmith/flowsmith/internal/settings"
	"github.com/flowsmith/flowsmith/pkg/agent/provider"
	"github.com/flowsmith/flowsmith/pkg/agent/provider/anthropic"
	"github.com/flowsmith/flowsmith/pkg/agent/provider/openai"
	"github.com/flowsmith/flowsmith/pkg/clients/runtime"
	"github.com/flowsmith/flowsmith/pkg/domain"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Flowsmith HTTP service",
		Long:  `Start the chat API. Loads the capability index snapshot (or falls back to a live corpus scan), connects to the workflow runtime and serves /chat, /chat/stream and /health.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			corpus, _ := cmd.Flags().GetString("corpus")
			snapshot, _ := cmd.Flags().GetString("snapshot")

			return runServe(addr, corpus, snapshot)
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().String("corpus", "./nodes", "Node source corpus directory")
	cmd.Flags().String("snapshot", defaultSnapshotPath(), "Capability index snapshot file")

	return cmd
}

func runServe(addr, corpus, snapshotPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := settings.NewStore()
	if err != nil {
		return err
	}

	index, err := catalog.Load(catalog.IndexDeps{
		CorpusRoot:   corpus,
		SnapshotPath: snapshotPath,
	})
	if err != nil {
		return err
	}

	runtimeClient := buildRuntimeClient(ctx, store)

	model, err := buildModel(ctx, store)
	if err != nil {
		return err
	}

	log.Info().
		Str("addr", addr).
		Int("node_types", index.Count()).
		Str("model", model.ID()).
		Msg("starting flowsmith service")

	chatController := controllers.NewChatController(controllers.ChatControllerDependencies{
		Index:         index,
		RuntimeClient: runtimeClient,
		Model:         model,
	})

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		ChatController: chatController,
		IndexCount:     index.Count,
	})

	if err := app.Listen(addr, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	log.Info().Msg("flowsmith service stopped")
	return nil
}

// buildRuntimeClient resolves connection details with precedence persisted
// setting > environment (the client's defaults read the environment).
func buildRuntimeClient(ctx context.Context, store domain.SettingsStore) runtime.API {
	options := []runtime.ClientOption{}

	if baseURL, err := store.Get(ctx, domain.SettingRuntimeBaseURL); err == nil {
		options = append(options, runtime.WithBaseURL(baseURL))
	}
	if apiKey, err := store.Get(ctx, domain.SettingRuntimeAPIKey); err == nil {
		options = append(options, runtime.WithAPIKey(apiKey))
	}

	return runtime.NewClient(options...)
}

func buildModel(ctx context.Context, store domain.SettingsStore) (provider.LanguageModel, error) {
	providerName, err := store.Get(ctx, domain.SettingLLMProvider)
	if err != nil {
		providerName = "anthropic"
	}

	modelName, _ := store.Get(ctx, domain.SettingLLMModel)

	switch providerName {
	case "openai":
		apiKey, err := store.Get(ctx, domain.SettingOpenAIKey)
		if err != nil {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if modelName == "" {
			modelName = "gpt-4o"
		}

		return openai.New(apiKey, modelName), nil

	default:
		apiKey, err := store.Get(ctx, domain.SettingAnthropicKey)
		if err != nil {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if modelName == "" {
			modelName = "claude-3-5-sonnet-latest"
		}

		return anthropic.New(apiKey, modelName), nil
	}
}
