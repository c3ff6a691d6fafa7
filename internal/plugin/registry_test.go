package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gzfs/greenlit/internal/models"
)

const validManifest = `{
  "id": "iso14001",
  "name": "ISO 14001 Environmental Management",
  "version": "1.0.0",
  "standard": "ISO14001",
  "description": "Environmental management system questions",
  "category": "environmental",
  "questions": [
    {
      "id": "ems_scope",
      "text": "How many sites are covered by your EMS?",
      "type": "number",
      "unit": "Sites",
      "code": "ISO-14001-4.3"
    },
    {
      "id": "recycled_share",
      "text": "What share of waste is recycled?",
      "type": "percentage",
      "unit": "Percentage (%)",
      "code": "ISO-14001-8.1",
      "validation": {"min": 0, "max": 100}
    }
  ]
}`

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	pluginDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "manifest.json"), []byte(content), 0o644))
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(nil)

	p := models.QuestionPlugin{
		ID:       "gri",
		Name:     "GRI Standards",
		Version:  "2.1.0",
		Standard: "GRI",
		Category: "governance",
		Questions: []models.Question{
			{ID: "board_size", Text: "How many board members?", Type: "number", Unit: "People", Code: "GRI-2-9"},
		},
	}
	require.NoError(t, r.Register(p))

	got, ok := r.Get("gri")
	require.True(t, ok)
	assert.Equal(t, "GRI Standards", got.Name)

	// Re-registering the same ID replaces the entry.
	p.Version = "2.2.0"
	require.NoError(t, r.Register(p))
	got, _ = r.Get("gri")
	assert.Equal(t, "2.2.0", got.Version)
}

func TestRegistryRegisterRejectsInvalid(t *testing.T) {
	r := NewRegistry(nil)

	err := r.Register(models.QuestionPlugin{ID: "broken", Version: "not-semver"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid version format")
	assert.Empty(t, r.List())
}

func TestRegistryLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "iso14001", validManifest)

	r := NewRegistry(nil)
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, ok := r.Get("iso14001")
	require.True(t, ok)
	assert.Equal(t, "ISO14001", p.Standard)
	require.Len(t, p.Questions, 2)
	require.NotNil(t, p.Questions[1].Validation)
	assert.Equal(t, float64(100), *p.Questions[1].Validation.Max)
}

func TestRegistryLoadDirSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "good", validManifest)
	writeManifest(t, dir, "garbage", `{not json`)
	writeManifest(t, dir, "incomplete", `{"id": "half", "version": "1.0.0"}`)

	// A plugin directory with no manifest at all is ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))
	// Loose files at the top level are ignored too.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("docs"), 0o644))

	r := NewRegistry(nil)
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "iso14001", list[0].ID)
}

func TestRegistryLoadDirMissing(t *testing.T) {
	r := NewRegistry(nil)
	n, err := r.LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegistryListOrdered(t *testing.T) {
	r := NewRegistry(nil)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(models.QuestionPlugin{
			ID:       id,
			Name:     id,
			Version:  "1.0.0",
			Standard: "X",
			Category: "c",
			Questions: []models.Question{
				{ID: "q", Text: "q", Type: "text", Unit: "u", Code: "c"},
			},
		}))
	}

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, "zeta", list[2].ID)
}

func TestRegistryRescan(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "iso14001", validManifest)

	r := NewRegistry(nil)
	_, err := r.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, r.List(), 1)

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "iso14001")))
	r.rescan(dir)
	assert.Empty(t, r.List())
}
