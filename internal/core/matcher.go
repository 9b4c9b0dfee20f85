package core

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"citabot/internal/llm"
	"citabot/pkg"
)

// SpecialtyCatalog provides the canonical specialty list.
type SpecialtyCatalog interface {
	ListActive(ctx context.Context) ([]pkg.Specialty, error)
}

// Matcher turns free-text symptoms into catalog specialties: one LLM call
// for suggestions, then fuzzy matching against storage.
type Matcher struct {
	llm     llm.Client
	catalog SpecialtyCatalog
	logger  *zap.Logger
}

// NewMatcher constructs a Matcher.
func NewMatcher(client llm.Client, catalog SpecialtyCatalog, logger *zap.Logger) *Matcher {
	return &Matcher{llm: client, catalog: catalog, logger: logger}
}

// Analyze asks the LLM for specialty suggestions and enforces the count
// invariant: always exactly three names, padded with FallbackSpecialty
// when the model returned fewer usable ones, truncated when it returned
// more.
func (m *Matcher) Analyze(ctx context.Context, patientName, symptoms string) ([]string, error) {
	prompt := fmt.Sprintf(analyzePromptTemplate, patientName, symptoms)
	resp, err := m.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("analyze symptoms: %w", err)
	}

	var names []string
	for _, part := range strings.Split(resp, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	for len(names) < 3 {
		names = append(names, FallbackSpecialty)
	}
	names = names[:3]

	m.logger.Debug("symptom analysis", zap.Strings("suggestions", names))
	return names, nil
}

// Match resolves each suggested name, in order, to the first catalog entry
// whose normalized name contains the normalized suggestion or vice versa.
// Unmatched suggestions are dropped; duplicates across suggestions are
// kept, mirroring the catalog's first-found-wins semantics.
func (m *Matcher) Match(ctx context.Context, suggestions []string) ([]pkg.Specialty, error) {
	catalog, err := m.catalog.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch specialty catalog: %w", err)
	}

	normalized := make([]string, len(catalog))
	for i, s := range catalog {
		normalized[i] = normalizeName(s.Name)
	}

	var matched []pkg.Specialty
	for _, suggestion := range suggestions {
		want := normalizeName(suggestion)
		if want == "" {
			continue
		}
		for i, have := range normalized {
			if strings.Contains(have, want) || strings.Contains(want, have) {
				matched = append(matched, catalog[i])
				break
			}
		}
	}
	return matched, nil
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName lowercases, removes diacritics, and trims, so that
// "cardiologia" and "Cardiología" compare equal.
func normalizeName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}
