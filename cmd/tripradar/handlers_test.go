package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/tripradar/pkg/match"
)

func TestReadProfile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"budgetRange":"low","interests":{"beach":4}}`), 0o600))
	p, err := readProfile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, match.BudgetLow, p.BudgetRange)
	assert.Equal(t, 4, p.Rating(match.InterestBeach))

	yamlPath := filepath.Join(dir, "p.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("budget_range: luxury\npreferred_regions: [desert]\ninterests:\n  desertAdventure: 5\n"), 0o600))
	p, err = readProfile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, match.BudgetLuxury, p.BudgetRange)
	assert.Equal(t, []string{"desert"}, p.PreferredRegions)
	assert.Equal(t, 5, p.Rating(match.InterestDesertAdventure))

	_, err = readProfile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMatchedInterests(t *testing.T) {
	got := matchedInterests(map[match.Interest]bool{
		match.InterestShopping:  true,
		match.InterestBeach:     true,
		match.InterestNightlife: false,
	})
	assert.Equal(t, "beach,shopping", got)
}

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"seed", "recommend", "places", "score", "serve", "run"}, names)
}
