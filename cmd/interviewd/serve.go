package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/config"
	"github.com/mayank0274/mock-interview-with-ai/internal/db"
	"github.com/mayank0274/mock-interview-with-ai/internal/interview"
	"github.com/mayank0274/mock-interview-with-ai/internal/llm"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/server"
	"github.com/mayank0274/mock-interview-with-ai/internal/storage"
	"github.com/mayank0274/mock-interview-with-ai/internal/transcription"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

var (
	servePort  int
	geminiName string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server and background pipelines",
	Long:  `Start the HTTP server together with the workflow runner that transcribes uploaded answers, evaluates them and prepares final interview results.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().StringVar(&geminiName, "model", "", "Gemini model name")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	ctx := cmd.Context()

	rdb, err := redisstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	model, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, geminiName)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer model.Close()

	store := storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseSecretKey, cfg.SupabaseBucket)

	meta := redisstore.NewSessionMetaStore(rdb)
	history := redisstore.NewHistoryStore(rdb)
	jobLog := redisstore.NewJobLog(rdb, logger)
	aggregates := redisstore.NewAggregateStore(rdb)
	chunks := redisstore.NewChunkSequence(rdb)

	runner := workflow.NewRunner(rdb, logger, 0)

	svc := interview.NewService(interview.Deps{
		Meta:       meta,
		History:    history,
		JobLog:     jobLog,
		Aggregates: aggregates,
		Model:      model,
		Repo:       database,
		Events:     runner,
		Logger:     logger,
	})

	pipeline := transcription.NewPipeline(
		store,
		transcription.NewClient(cfg.SpeechmaticsAPIKey),
		jobLog,
		runner,
		logger,
	)

	runner.Register(pipeline.Function())
	runner.Register(svc.TurnFunction())
	runner.Register(svc.FinalizeFunction())
	runner.Start(context.Background())
	defer runner.Close() //nolint:errcheck

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	srv := server.New(server.Deps{
		Port:         cfg.Port,
		Interviews:   database,
		InterviewSvc: svc,
		Users:        database,
		JWTConfig:    jwtCfg,
		Meta:         meta,
		JobLog:       jobLog,
		Chunks:       chunks,
		Storage:      store,
		Events:       runner,
		Logger:       logger,
	})

	return srv.Start()
}
