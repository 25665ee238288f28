package functions

import (
	"fmt"

	"github.com/m2tx/solarshine/internal/catalog"
	"github.com/m2tx/solarshine/internal/chat"
	"github.com/m2tx/solarshine/internal/knowledge"
)

// NewToolset registers every assistant tool. The FAQ search is left out
// when the index holds no documents.
func NewToolset(c *catalog.Catalog, x *knowledge.Index) (*chat.Toolset, error) {
	ts := chat.NewToolset()

	declarations := []*chat.FunctionDeclaration{
		CreateServicesFunctionDeclaration(c),
		CreateContactFunctionDeclaration(c),
	}
	if x != nil && x.Len() > 0 {
		declarations = append(declarations, CreateFAQSearchFunctionDeclaration(x))
	}

	for _, fd := range declarations {
		if err := ts.AddFunctionCall(fd); err != nil {
			return nil, fmt.Errorf("functions: register %s: %w", fd.Name, err)
		}
	}

	return ts, nil
}
