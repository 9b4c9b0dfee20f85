package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citabot/pkg"
)

func newTestMatcher(llmResponse string, catalog []pkg.Specialty) *Matcher {
	return NewMatcher(
		&stubLLM{response: llmResponse},
		&stubCatalog{specialties: catalog},
		zap.NewNop(),
	)
}

func TestAnalyzePadsToThree(t *testing.T) {
	m := newTestMatcher("Cardiología", nil)

	names, err := m.Analyze(context.Background(), "Maria Lopez", "dolor de pecho")

	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiología", FallbackSpecialty, FallbackSpecialty}, names)
}

func TestAnalyzeTruncatesToThree(t *testing.T) {
	m := newTestMatcher("Cardiología, Neurología, Dermatología, Pediatría, Urología", nil)

	names, err := m.Analyze(context.Background(), "Maria Lopez", "me duele todo")

	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiología", "Neurología", "Dermatología"}, names)
}

func TestAnalyzeDiscardsEmptyEntriesBeforePadding(t *testing.T) {
	m := newTestMatcher(" , Cardiología, ,  ", nil)

	names, err := m.Analyze(context.Background(), "Maria Lopez", "dolor")

	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiología", FallbackSpecialty, FallbackSpecialty}, names)
}

func TestAnalyzeEmptyResponseIsAllFallback(t *testing.T) {
	m := newTestMatcher("", nil)

	names, err := m.Analyze(context.Background(), "Maria Lopez", "dolor")

	require.NoError(t, err)
	assert.Equal(t, []string{FallbackSpecialty, FallbackSpecialty, FallbackSpecialty}, names)
}

func TestMatchIsCaseAndDiacriticInsensitive(t *testing.T) {
	m := newTestMatcher("", []pkg.Specialty{{ID: 7, Name: "Cardiología"}})

	matched, err := m.Match(context.Background(), []string{"cardiologia"})

	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, 7, matched[0].ID)
	assert.Equal(t, "Cardiología", matched[0].Name)
}

func TestMatchBidirectionalContainment(t *testing.T) {
	catalog := []pkg.Specialty{
		{ID: 1, Name: "Medicina Interna"},
		{ID: 2, Name: "Cirugía"},
	}
	m := newTestMatcher("", catalog)

	tests := []struct {
		name       string
		suggestion string
		wantID     int
	}{
		{"suggestion contained in catalog name", "Interna", 1},
		{"catalog name contained in suggestion", "Cirugía General", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, err := m.Match(context.Background(), []string{tt.suggestion})
			require.NoError(t, err)
			require.Len(t, matched, 1)
			assert.Equal(t, tt.wantID, matched[0].ID)
		})
	}
}

func TestMatchDropsUnmatchedPreservesOrder(t *testing.T) {
	catalog := []pkg.Specialty{
		{ID: 1, Name: "Cardiología"},
		{ID: 2, Name: "Neurología"},
	}
	m := newTestMatcher("", catalog)

	matched, err := m.Match(context.Background(), []string{"Neurología", "Astrología", "Cardiología"})

	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "Neurología", matched[0].Name)
	assert.Equal(t, "Cardiología", matched[1].Name)
}

// Duplicate matches across different suggestions are kept as separate
// candidates; collapsing them would change the numbered menu.
func TestMatchKeepsDuplicates(t *testing.T) {
	catalog := []pkg.Specialty{{ID: 1, Name: "Medicina General"}}
	m := newTestMatcher("", catalog)

	matched, err := m.Match(context.Background(), []string{"Medicina General", "medicina general"})

	require.NoError(t, err)
	assert.Len(t, matched, 2)
}

func TestMatchFirstCatalogEntryWins(t *testing.T) {
	catalog := []pkg.Specialty{
		{ID: 1, Name: "Medicina General"},
		{ID: 2, Name: "Medicina General y Familiar"},
	}
	m := newTestMatcher("", catalog)

	matched, err := m.Match(context.Background(), []string{"Medicina General"})

	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, 1, matched[0].ID)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Cardiología", "cardiologia"},
		{"  NEUROLOGÍA  ", "neurologia"},
		{"medicina general", "medicina general"},
		{"Cirugía Plástica", "cirugia plastica"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeName(tt.in), "input %q", tt.in)
	}
}
