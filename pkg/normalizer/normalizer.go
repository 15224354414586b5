package normalizer

import (
	"strings"
	"unicode"

	"github.com/trialbridge-health/platform/pkg/vocabulary"
)

// Normalizer converts patient-authored condition text into canonical tags.
// The vocabulary is injected at construction and never changes afterwards.
type Normalizer struct {
	vocab vocabulary.Vocabulary
	pairs []synonymPair
}

type synonymPair struct {
	synonym string
	tag     string
}

func New(vocab vocabulary.Vocabulary) *Normalizer {
	// Each synonym belongs to the first condition that declares it.
	claimed := make(map[string]struct{})
	var pairs []synonymPair
	for _, cond := range vocab.Conditions {
		for _, syn := range cond.Synonyms {
			normalized := normalizeText(syn)
			if normalized == "" {
				continue
			}
			if _, ok := claimed[normalized]; ok {
				continue
			}
			claimed[normalized] = struct{}{}
			pairs = append(pairs, synonymPair{synonym: normalized, tag: cond.Tag})
		}
	}
	return &Normalizer{vocab: vocab, pairs: pairs}
}

// Normalize returns the canonical tags found in text, in first-discovered
// order. A generic cancer mention is resolved to organ-specific tags when
// an organ keyword appears anywhere in the text; the generic tag is dropped
// whenever at least one organ tag applies.
func (n *Normalizer) Normalize(text string) []string {
	normalized := normalizeText(text)
	if normalized == "" {
		return nil
	}

	var tags []string
	found := make(map[string]struct{})
	add := func(tag string) {
		if _, ok := found[tag]; ok {
			return
		}
		found[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, pair := range n.pairs {
		if strings.Contains(normalized, pair.synonym) {
			add(pair.tag)
		}
	}

	generic := n.vocab.GenericCancerTag
	if _, ok := found[generic]; ok {
		organMatched := false
		for _, organ := range n.vocab.OrganKeywords {
			keyword := normalizeText(organ.Keyword)
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, keyword) {
				add(organ.Tag)
				organMatched = true
			}
		}
		if organMatched {
			tags = remove(tags, generic)
			delete(found, generic)
		}
	}

	return tags
}

// NormalizeOrFallback preserves the patient's literal wording as a makeshift
// tag when the vocabulary has no match, so the input is never silently
// dropped. Blank input yields no tags at all.
func (n *Normalizer) NormalizeOrFallback(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	tags := n.Normalize(text)
	if len(tags) == 0 {
		return []string{trimmed}
	}
	return tags
}

func remove(tags []string, target string) []string {
	out := tags[:0]
	for _, t := range tags {
		if t != target {
			out = append(out, t)
		}
	}
	return out
}

// normalizeText lowercases, maps every non-alphanumeric rune to a space and
// collapses runs of whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
