package functions

import (
	"context"
	"fmt"
	"strings"

	"github.com/m2tx/solarshine/internal/chat"
	"github.com/m2tx/solarshine/internal/knowledge"
)

const faqResults = 3

// CreateFAQSearchFunctionDeclaration returns a tool that searches the FAQ
// documents.
func CreateFAQSearchFunctionDeclaration(x *knowledge.Index) *chat.FunctionDeclaration {
	return &chat.FunctionDeclaration{
		Name:        "search_faq",
		Description: "Searches the Cape-SolarShine FAQ for cleaning methods, water, safety, warranty, maintenance frequency and booking. Use this whenever the visitor asks a factual question about solar panel cleaning.",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The question or keywords to look up",
				},
			},
			"required": []string{"query"},
		},
		ResponseSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"results": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"filename": map[string]any{
								"type":        "string",
								"description": "Source document",
							},
							"content": map[string]any{
								"type":        "string",
								"description": "Relevant excerpt",
							},
						},
					},
				},
			},
		},
		FunctionCall: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			query, _ := args["query"].(string)
			if strings.TrimSpace(query) == "" {
				return nil, fmt.Errorf("search_faq: query argument is required")
			}

			found := x.Search(query, faqResults)

			results := make([]map[string]any, 0, len(found))
			for _, r := range found {
				results = append(results, map[string]any{
					"filename": r.Filename,
					"content":  r.Content,
				})
			}

			return map[string]any{"results": results}, nil
		},
	}
}
