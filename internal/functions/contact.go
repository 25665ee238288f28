package functions

import (
	"context"

	"github.com/m2tx/solarshine/internal/catalog"
	"github.com/m2tx/solarshine/internal/chat"
)

func CreateContactFunctionDeclaration(c *catalog.Catalog) *chat.FunctionDeclaration {
	return &chat.FunctionDeclaration{
		Name:        "get_contact_details",
		Description: "Returns how to book a clean: phone, email, service region and the first-clean discount code.",
		ResponseSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"company":    map[string]any{"type": "string"},
				"phone":      map[string]any{"type": "string"},
				"email":      map[string]any{"type": "string"},
				"region":     map[string]any{"type": "string"},
				"promo_code": map[string]any{"type": "string", "description": "Discount code for a first clean"},
				"promo":      map[string]any{"type": "string", "description": "What the discount code gives"},
			},
		},
		FunctionCall: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{
				"company":    c.Company.Name,
				"phone":      c.Company.Phone,
				"email":      c.Company.Email,
				"region":     c.Company.Region,
				"promo_code": c.Company.PromoCode,
				"promo":      c.Company.PromoDescription,
			}, nil
		},
	}
}
