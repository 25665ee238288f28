package functions

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/m2tx/solarshine/assets"
	"github.com/m2tx/solarshine/internal/catalog"
	"github.com/m2tx/solarshine/internal/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtures(t *testing.T) (*catalog.Catalog, *knowledge.Index) {
	t.Helper()

	c, err := catalog.Load(assets.Catalog)
	require.NoError(t, err)

	x := knowledge.NewIndex(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, x.Load(assets.Dir, assets.FAQDir))

	return c, x
}

func TestNewToolset(t *testing.T) {
	c, x := fixtures(t)

	ts, err := NewToolset(c, x)
	require.NoError(t, err)
	assert.Equal(t, []string{"get_contact_details", "get_services", "search_faq"}, ts.Names())
}

func TestContactFunction(t *testing.T) {
	c, _ := fixtures(t)

	got, err := CreateContactFunctionDeclaration(c).FunctionCall(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "084 826 3153", got["phone"])
	assert.Equal(t, "jaco@cape-solarshine.co.za", got["email"])
	assert.Equal(t, "H2Oclean", got["promo_code"])
}

func TestServicesFunction(t *testing.T) {
	c, _ := fixtures(t)

	got, err := CreateServicesFunctionDeclaration(c).FunctionCall(context.Background(), map[string]any{})
	require.NoError(t, err)

	benefits, ok := got["benefits"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, benefits, 6)

	packages, ok := got["packages"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, packages, 3)
	assert.Equal(t, "Residential", packages[0]["name"])

	assert.Equal(t, []string{"Window cleaning"}, got["not_offered"])
}

func TestServicesFunction_SingleBenefit(t *testing.T) {
	c, _ := fixtures(t)
	fn := CreateServicesFunctionDeclaration(c).FunctionCall

	got, err := fn(context.Background(), map[string]any{"benefit": "eco"})
	require.NoError(t, err)

	benefits, ok := got["benefits"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, benefits, 1)

	eco, _ := c.Benefit("eco")
	assert.Equal(t, eco.Title, benefits[0]["title"])

	_, err = fn(context.Background(), map[string]any{"benefit": "windows"})
	assert.Error(t, err)
}

func TestNewToolset_EmptyIndexSkipsFAQ(t *testing.T) {
	c, _ := fixtures(t)

	ts, err := NewToolset(c, knowledge.NewIndex(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	assert.Equal(t, []string{"get_contact_details", "get_services"}, ts.Names())
}

func TestFAQSearchFunction(t *testing.T) {
	_, x := fixtures(t)
	fn := CreateFAQSearchFunctionDeclaration(x).FunctionCall

	got, err := fn(context.Background(), map[string]any{"query": "why de-ionised water instead of rainwater?"})
	require.NoError(t, err)

	results, ok := got["results"].([]map[string]any)
	require.True(t, ok)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), faqResults)
	assert.Equal(t, "water.md", results[0]["filename"])

	_, err = fn(context.Background(), map[string]any{"query": "  "})
	assert.Error(t, err)

	_, err = fn(context.Background(), map[string]any{"query": 42})
	assert.Error(t, err)
}
