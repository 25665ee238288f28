package functions

import (
	"context"
	"fmt"
	"strings"

	"github.com/m2tx/solarshine/internal/catalog"
	"github.com/m2tx/solarshine/internal/chat"
)

// CreateServicesFunctionDeclaration lists what the company offers. An
// optional benefit id narrows the benefits to that one card.
func CreateServicesFunctionDeclaration(c *catalog.Catalog) *chat.FunctionDeclaration {
	ids := make([]string, 0, len(c.Benefits))
	for _, b := range c.Benefits {
		ids = append(ids, b.ID)
	}

	return &chat.FunctionDeclaration{
		Name:        "get_services",
		Description: "Lists the solar panel cleaning benefits and service packages Cape-SolarShine offers, and the services it does not offer.",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"benefit": map[string]any{
					"type":        "string",
					"description": "Only return this benefit",
					"enum":        ids,
				},
			},
		},
		ResponseSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"benefits": map[string]any{
					"type":        "array",
					"description": "Benefits of a professional clean",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":       map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
						},
					},
				},
				"packages": map[string]any{
					"type":        "array",
					"description": "Service packages and what each includes",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":     map[string]any{"type": "string"},
							"subtitle": map[string]any{"type": "string"},
							"items": map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "string"},
							},
						},
					},
				},
				"not_offered": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		},
		FunctionCall: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			selected := c.Benefits
			if id, _ := args["benefit"].(string); strings.TrimSpace(id) != "" {
				b, ok := c.Benefit(strings.TrimSpace(id))
				if !ok {
					return nil, fmt.Errorf("get_services: unknown benefit %q", id)
				}
				selected = []catalog.Benefit{b}
			}

			benefits := make([]map[string]any, 0, len(selected))
			for _, b := range selected {
				benefits = append(benefits, map[string]any{
					"title":       b.Title,
					"description": b.Description,
				})
			}

			packages := make([]map[string]any, 0, len(c.Packages))
			for _, p := range c.Packages {
				packages = append(packages, map[string]any{
					"name":     p.Name,
					"subtitle": p.Subtitle,
					"items":    p.Items,
				})
			}

			return map[string]any{
				"benefits":    benefits,
				"packages":    packages,
				"not_offered": c.Company.Exclusions,
			}, nil
		},
	}
}
