package reference

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"immoeliza/server/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Table is the immutable commune reference table. It is safe for concurrent
// reads once built.
type Table struct {
	records []models.CommuneRecord
	byName  map[string]int
	byZip   map[string]int
}

// NewTable indexes records by normalized commune name and zip code. Duplicate
// keys are rejected.
func NewTable(records []models.CommuneRecord) (*Table, error) {
	t := &Table{
		records: make([]models.CommuneRecord, len(records)),
		byName:  make(map[string]int, len(records)),
		byZip:   make(map[string]int),
	}
	copy(t.records, records)

	for i, rec := range t.records {
		name := NormalizeKey(rec.Commune)
		if name == "" {
			return nil, fmt.Errorf("record %d has an empty commune name", i+1)
		}
		if prev, ok := t.byName[name]; ok {
			return nil, fmt.Errorf("duplicate commune %q (also %q)", rec.Commune, t.records[prev].Commune)
		}
		t.byName[name] = i

		zip := strings.TrimSpace(rec.ZipCode)
		if zip == "" {
			continue
		}
		if prev, ok := t.byZip[zip]; ok {
			return nil, fmt.Errorf("zip code %s used by both %q and %q", zip, t.records[prev].Commune, rec.Commune)
		}
		t.byZip[zip] = i
	}

	return t, nil
}

// Resolve looks a key up by commune name first, then by zip code.
func (t *Table) Resolve(key string) (models.CommuneRecord, error) {
	if i, ok := t.byName[NormalizeKey(key)]; ok {
		return t.records[i], nil
	}
	if i, ok := t.byZip[strings.TrimSpace(key)]; ok {
		return t.records[i], nil
	}
	return models.CommuneRecord{}, fmt.Errorf("%w: %q", models.ErrNotFound, key)
}

// Communes returns the commune names sorted for display.
func (t *Table) Communes() []string {
	names := make([]string, len(t.records))
	for i, rec := range t.records {
		names[i] = rec.Commune
	}
	sort.Slice(names, func(i, j int) bool {
		return NormalizeKey(names[i]) < NormalizeKey(names[j])
	})
	return names
}

// Records returns a copy of all records in load order.
func (t *Table) Records() []models.CommuneRecord {
	out := make([]models.CommuneRecord, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Table) Len() int {
	return len(t.records)
}

// NormalizeKey folds case, strips diacritics and collapses separators so that
// "Liège", "LIEGE" and " liege " share a key.
func NormalizeKey(s string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(chain, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	return strings.Join(fields, " ")
}
