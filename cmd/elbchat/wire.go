package main

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/elbchat/elbchat/config"
	"github.com/elbchat/elbchat/logging"
	"github.com/elbchat/elbchat/model"
	"github.com/elbchat/elbchat/model/anthropic"
	"github.com/elbchat/elbchat/model/openai"
	"github.com/elbchat/elbchat/retrieval"
)

// buildModel constructs the chat model from configuration. The openai
// provider covers every OpenAI-compatible endpoint, DeepSeek included, via
// the configurable base URL.
func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case "openai":
		var clientOpts []option.RequestOption
		if cfg.Model.APIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(cfg.Model.APIKey))
		}
		if cfg.Model.BaseURL != "" {
			clientOpts = append(clientOpts, option.WithBaseURL(cfg.Model.BaseURL))
		}
		client := openaisdk.NewClient(clientOpts...)
		return openai.NewModelFromClient(&client, func(o *openai.Options) {
			o.Model = cfg.Model.Name
			o.Temperature = cfg.Model.Temperature
			if cfg.Model.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.Model.MaxTokens)
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.APIKey = cfg.Model.APIKey
			o.Temperature = cfg.Model.Temperature
			if cfg.Model.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.Model.MaxTokens)
			}
		}), nil
	case "mock":
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

// buildEngine constructs the retrieval engine with the configured index
// backend. The returned cleanup closes the database pool when one was opened.
func buildEngine(ctx context.Context, cfg *config.Config, logger logging.Logger) (*retrieval.Engine, func(), error) {
	var clientOpts []option.RequestOption
	if cfg.Embedding.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.Embedding.APIKey))
	}
	if cfg.Embedding.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.Embedding.BaseURL))
	}
	client := openaisdk.NewClient(clientOpts...)
	embedder := retrieval.NewOpenAIEmbedder(&client, openaisdk.EmbeddingModel(cfg.Embedding.Model))

	cleanup := func() {}
	var knowledgeBase, history retrieval.Index

	switch cfg.Retrieval.Backend {
	case "pgvector":
		poolCfg, err := pgxpool.ParseConfig(cfg.Retrieval.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse database url: %w", err)
		}
		poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvector.RegisterTypes(ctx, conn)
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		cleanup = pool.Close

		kb := retrieval.NewPgIndex(pool, "kb_documents", cfg.Retrieval.Dimensions)
		hist := retrieval.NewPgIndex(pool, "conversation_history", cfg.Retrieval.Dimensions)
		for _, idx := range []*retrieval.PgIndex{kb, hist} {
			if err := idx.EnsureSchema(ctx); err != nil {
				cleanup()
				return nil, nil, err
			}
		}
		knowledgeBase, history = kb, hist
	case "memory":
		knowledgeBase = retrieval.NewMemoryIndex()
		history = retrieval.NewMemoryIndex()
	default:
		return nil, nil, fmt.Errorf("unknown retrieval backend %q", cfg.Retrieval.Backend)
	}

	return retrieval.NewEngine(embedder, knowledgeBase, history, logger), cleanup, nil
}
