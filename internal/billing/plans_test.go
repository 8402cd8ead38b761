package billing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrices = PriceIDs{Starter: "price_starter", Pro: "price_pro", Team: "price_team"}

func TestCatalogGolden(t *testing.T) {
	data, err := DefaultCatalog(testPrices).JSON()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "catalog", data)
}

func TestCatalogLookup(t *testing.T) {
	c := DefaultCatalog(testPrices)

	pro, ok := c.Lookup("pro")
	require.True(t, ok)
	assert.Equal(t, 349, pro.Price)
	assert.Equal(t, "price_pro", pro.PriceID)

	_, ok = c.Lookup("enterprise")
	assert.False(t, ok)
}

func TestLoadCatalog_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pro:
  price: 399
  price_id: price_pro_2025
team:
  features:
    - Everything
`), 0o600))

	c, err := LoadCatalog(path, testPrices)
	require.NoError(t, err)

	pro, _ := c.Lookup("pro")
	assert.Equal(t, 399, pro.Price)
	assert.Equal(t, "price_pro_2025", pro.PriceID)
	assert.Equal(t, "Pro", pro.Name)

	team, _ := c.Lookup("team")
	assert.Equal(t, []string{"Everything"}, team.Features)

	starter, _ := c.Lookup("starter")
	assert.Equal(t, 199, starter.Price)
}

func TestLoadCatalog_UnknownPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enterprise:\n  price: 999\n"), 0o600))

	_, err := LoadCatalog(path, testPrices)
	require.Error(t, err)
}

func TestLoadCatalog_NoPath(t *testing.T) {
	c, err := LoadCatalog("", testPrices)
	require.NoError(t, err)
	assert.Len(t, c.Plans(), 3)
}
