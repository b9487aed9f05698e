package tools

import (
	"context"

	"github.com/elbchat/elbchat/retrieval"
	"github.com/elbchat/elbchat/tool"
)

// NewKnowledgeTool returns the knowledge-base search tool. Queries run with
// the knowledge-base defaults (top 5, minimum relevance 0.6) and an empty
// result degrades to the canned no-information string instead of an error.
func NewKnowledgeTool(engine *retrieval.Engine) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What to look up in the knowledge base",
			},
		},
		"required": []string{"query"},
	}
	return tool.NewFunctionTool(
		"search_knowledge_base",
		"Search the curated knowledge base for facts about Hamburg: districts, history, attractions and practical information ingested from local documents.",
		params,
		func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			results, err := engine.Query(ctx, query, retrieval.TargetKnowledgeBase,
				retrieval.KnowledgeBaseTopK, retrieval.KnowledgeBaseMinScore)
			if err != nil {
				return "", err
			}
			return retrieval.FormatKnowledge(results, query), nil
		},
	)
}

// NewHistoryTool returns the conversation-context tool. Queries run with the
// history defaults (top 3, minimum relevance 0.7).
func NewHistoryTool(engine *retrieval.Engine) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Topic to look for in earlier conversations",
			},
		},
		"required": []string{"query"},
	}
	return tool.NewFunctionTool(
		"search_conversation_history",
		"Search earlier conversations with this user for relevant context, such as previously mentioned preferences or plans. Use when the user refers back to something discussed before.",
		params,
		func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			results, err := engine.Query(ctx, query, retrieval.TargetConversationHistory,
				retrieval.HistoryTopK, retrieval.HistoryMinScore)
			if err != nil {
				return "", err
			}
			return retrieval.FormatHistory(results), nil
		},
	)
}
