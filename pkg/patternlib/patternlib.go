// Package patternlib implements the named, persisted pattern library used by
// the entity extractor's PATTERN source: a portable {entity_type -> ordered
// templates} schema backed by a single Aho-Corasick automaton, adapting
// implicit-matcher's RuntimeDictionary/Compile (which scans and looks up
// against one flat dictionary) into per-type template collections with
// confidence and usage counters.
package patternlib

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/coregx/ahocorasick"
	"github.com/kittclouds/ares/pkg/normalizer"
)

// Template is one surface-form pattern registered under an entity type.
type Template struct {
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
	UsageCount int     `json:"usage_count"`
}

// Library is a named, persisted collection of entity-type -> templates,
// compiled into a single Aho-Corasick automaton for O(n) scanning.
type Library struct {
	mu    sync.RWMutex
	Name  string
	Domain string
	byType map[string][]*Template

	ac           *ahocorasick.Automaton
	patternIndex map[string]int   // normalized pattern -> ac pattern index
	patternType  map[string]string // normalized pattern -> entity type
	patterns     []string
}

// Metadata summarizes a library for persistence and inspection.
type Metadata struct {
	TotalPatterns int       `json:"total_patterns"`
	TotalTypes    int       `json:"total_types"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// New returns an empty, uncompiled library.
func New(name, domain string) *Library {
	return &Library{
		Name:   name,
		Domain: domain,
		byType: map[string][]*Template{},
	}
}

// Add registers a template for entityType. The library must be recompiled
// (via Compile) before Scan/Match reflect the new template.
func (l *Library) Add(entityType, pattern string, confidence float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byType[entityType] = append(l.byType[entityType], &Template{Pattern: pattern, Confidence: confidence})
}

// Compile builds the Aho-Corasick automaton from every registered template,
// matching implicit-matcher's LeftmostLongest + prefilter configuration so
// that multi-word templates win over their prefixes.
func (l *Library) Compile() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.patternIndex = map[string]int{}
	l.patternType = map[string]string{}
	l.patterns = l.patterns[:0]

	types := make([]string, 0, len(l.byType))
	for t := range l.byType {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		for _, tmpl := range l.byType[t] {
			key := normalizer.NormalizeForAliasing(tmpl.Pattern)
			if key == "" {
				continue
			}
			if _, exists := l.patternIndex[key]; exists {
				continue
			}
			idx := len(l.patterns)
			l.patterns = append(l.patterns, key)
			l.patternIndex[key] = idx
			l.patternType[key] = t
		}
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(l.patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return fmt.Errorf("patternlib: compile automaton: %w", err)
	}
	l.ac = automaton
	return nil
}

// Match is one pattern hit in a scanned text.
type Match struct {
	Start      int
	End        int
	Text       string
	EntityType string
	Confidence float64
}

// Scan finds every template occurrence in text. Matching runs on
// normalizer.NormalizeForAliasing(text); each Match's Start, End and Text
// refer to that normalized string and are not mapped back onto the
// original bytes of text.
func (l *Library) Scan(text string) []Match {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.ac == nil {
		return nil
	}

	normalized := normalizer.NormalizeForAliasing(text)
	hits := l.ac.FindAllOverlapping([]byte(normalized))

	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		if h.PatternID < 0 || h.PatternID >= len(l.patterns) {
			continue
		}
		pattern := l.patterns[h.PatternID]
		entityType := l.patternType[pattern]
		tmpl := l.findTemplate(entityType, pattern)
		conf := 0.55
		if tmpl != nil {
			conf = tmpl.Confidence
			tmpl.UsageCount++
		}
		out = append(out, Match{
			Start:      h.Start,
			End:        h.End,
			Text:       normalized[h.Start:h.End],
			EntityType: entityType,
			Confidence: conf,
		})
	}
	return out
}

func (l *Library) findTemplate(entityType, normalizedPattern string) *Template {
	for _, t := range l.byType[entityType] {
		if normalizer.NormalizeForAliasing(t.Pattern) == normalizedPattern {
			return t
		}
	}
	return nil
}

// Templates returns every template registered for entityType.
func (l *Library) Templates(entityType string) []Template {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Template, len(l.byType[entityType]))
	for i, t := range l.byType[entityType] {
		out[i] = *t
	}
	return out
}

// libraryFile is the on-disk schema: {name, domain, entity_types, metadata}.
type libraryFile struct {
	Name        string                `json:"name"`
	Domain      string                `json:"domain"`
	EntityTypes map[string][]Template `json:"entity_types"`
	Metadata    Metadata              `json:"metadata"`
}

// Save persists l to path, uncompiled (the automaton is rebuilt on Load via
// Compile, since ahocorasick.Automaton itself is not serializable here).
func (l *Library) Save(path string) error {
	l.mu.RLock()
	entityTypes := make(map[string][]Template, len(l.byType))
	total := 0
	for t, tmpls := range l.byType {
		out := make([]Template, len(tmpls))
		for i, tmpl := range tmpls {
			out[i] = *tmpl
		}
		entityTypes[t] = out
		total += len(tmpls)
	}
	name, domain := l.Name, l.Domain
	l.mu.RUnlock()

	data, err := json.MarshalIndent(libraryFile{
		Name: name, Domain: domain, EntityTypes: entityTypes,
		Metadata: Metadata{TotalPatterns: total, TotalTypes: len(entityTypes), CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("patternlib: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a library previously written by Save and compiles it.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patternlib: read: %w", err)
	}
	var f libraryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("patternlib: unmarshal: %w", err)
	}

	l := New(f.Name, f.Domain)
	for t, tmpls := range f.EntityTypes {
		for _, tmpl := range tmpls {
			l.Add(t, tmpl.Pattern, tmpl.Confidence)
		}
	}
	if err := l.Compile(); err != nil {
		return nil, err
	}
	return l, nil
}
