package remedy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cropLabels = []string{
	"Corn___Common_Rust", "Corn___Gray_Leaf_Spot", "Corn___Healthy",
	"Potato___Early_Blight", "Potato___Late_Blight", "Potato___Healthy",
	"Rice___Brown_Spot", "Rice___Leaf_Blast", "Rice___Healthy",
	"Wheat___Brown_Rust", "Wheat___Yellow_Rust", "Wheat___Healthy",
}

func defaultCatalogT(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func TestDefaultCatalogCoverage(t *testing.T) {
	c := defaultCatalogT(t)

	assert.ElementsMatch(t, append(append([]string{}, cropLabels...), "Invalid"), c.Labels())
	assert.Empty(t, c.Missing(append(cropLabels, "Invalid"), []string{"en", "ta"}))
}

func TestLookupTamilCommonRust(t *testing.T) {
	rec := defaultCatalogT(t).Lookup("Corn___Common_Rust", "ta")

	assert.Equal(t, "மக்காச்சோளம் - பொது காளான் புண்", rec.Disease)
	assert.Contains(t, rec.Remedy, "Mancozeb")
	assert.Contains(t, rec.Remedy, "Azoxystrobin")
	assert.Equal(t, "Mancozeb 75% WP அல்லது Azoxystrobin 23% SC", rec.Medicine)
}

func TestLookupEnglishHealthyWheat(t *testing.T) {
	rec := defaultCatalogT(t).Lookup("Wheat___Healthy", DefaultLanguage)

	assert.Equal(t, Record{
		Disease:  "Wheat - Healthy",
		Remedy:   "No disease found. Continue with routine care and nutrient management.",
		Medicine: "N/A",
	}, rec)
}

func TestLookupPreservesSpecialCharacters(t *testing.T) {
	rec := defaultCatalogT(t).Lookup("Potato___Late_Blight", "en")
	assert.Equal(t, "Metalaxyl 8% + Mancozeb 64% WP or Dimethomorph 50% WP", rec.Medicine)
}

func TestLookupFallback(t *testing.T) {
	c := defaultCatalogT(t)

	for _, lang := range []string{"en", "ta", "fr", ""} {
		assert.Equal(t, Record{
			Disease:  "Unknown_Label_XYZ",
			Remedy:   "No remedy info available.",
			Medicine: "N/A",
		}, c.Lookup("Unknown_Label_XYZ", lang))
	}

	assert.Equal(t, Fallback("Rice___Leaf_Blast"), c.Lookup("Rice___Leaf_Blast", "fr"))
	assert.Equal(t, Fallback("Rice___Leaf_Blast"), c.Lookup("Rice___Leaf_Blast", ""))
}

func TestNewCopiesEntries(t *testing.T) {
	entries := map[string]map[string]Record{
		"Corn___Healthy": {"en": {Disease: "healthy", Remedy: "none", Medicine: "N/A"}},
	}
	c := New(entries)

	entries["Corn___Healthy"]["en"] = Record{Disease: "changed"}
	delete(entries, "Corn___Healthy")

	assert.Equal(t, "healthy", c.Lookup("Corn___Healthy", "en").Disease)
}

func TestMissing(t *testing.T) {
	c := New(map[string]map[string]Record{
		"A": {"en": {Disease: "a"}},
		"B": {"en": {Disease: "b"}, "ta": {Disease: "b"}},
	})

	assert.Equal(t, []string{"A/ta", "C/en", "C/ta"}, c.Missing([]string{"A", "B", "C"}, []string{"en", "ta"}))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remedies.yaml")
	content := `
Tomato___Leaf_Mold:
  en:
    disease: "Tomato - Leaf Mold"
    remedy: "Improve ventilation."
    medicine: "Chlorothalonil"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Tomato - Leaf Mold", c.Lookup("Tomato___Leaf_Mold", "en").Disease)
	assert.Equal(t, Fallback("Corn___Healthy"), c.Lookup("Corn___Healthy", "en"))
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("A:\n  en:\n    disease: x\n    dosage: y\n"))
	assert.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
