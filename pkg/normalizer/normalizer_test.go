package normalizer

import (
	"testing"

	"github.com/trialbridge-health/platform/pkg/vocabulary"
)

func testVocabulary() vocabulary.Vocabulary {
	return vocabulary.Vocabulary{
		GenericCancerTag: "Cancer",
		Conditions: []vocabulary.CanonicalCondition{
			{Tag: "Brain Cancer", Synonyms: []string{"brain cancer", "glioma"}, OrganSpecificOf: "Cancer"},
			{Tag: "Lung Cancer", Synonyms: []string{"lung cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Cancer", Synonyms: []string{"cancer", "tumor", "tumour", "carcinoma", "malignancy"}},
			{Tag: "Diabetes Mellitus", Synonyms: []string{"diabet"}},
			{Tag: "Hypertension", Synonyms: []string{"hypertens", "high blood pressure"}},
		},
		OrganKeywords: []vocabulary.OrganKeyword{
			{Keyword: "brain", Tag: "Brain Cancer"},
			{Keyword: "lung", Tag: "Lung Cancer"},
		},
	}
}

func contains(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func TestNormalizeFindsSynonym(t *testing.T) {
	n := New(testVocabulary())
	tags := n.Normalize("I was recently told I have a glioma")
	if !contains(tags, "Brain Cancer") {
		t.Fatalf("expected Brain Cancer, got %v", tags)
	}
}

func TestNormalizeStemCatchesVariants(t *testing.T) {
	n := New(testVocabulary())
	for _, text := range []string{"I am diabetic", "diagnosed with diabetes last year"} {
		tags := n.Normalize(text)
		if !contains(tags, "Diabetes Mellitus") {
			t.Fatalf("expected Diabetes Mellitus for %q, got %v", text, tags)
		}
	}
}

func TestNormalizeMultipleConditions(t *testing.T) {
	n := New(testVocabulary())
	tags := n.Normalize("diabetes and high blood pressure")
	if len(tags) != 2 || !contains(tags, "Diabetes Mellitus") || !contains(tags, "Hypertension") {
		t.Fatalf("expected two tags, got %v", tags)
	}
}

func TestNormalizeCancerDisambiguation(t *testing.T) {
	n := New(testVocabulary())
	tags := n.Normalize("I was diagnosed with a brain tumor")
	if !contains(tags, "Brain Cancer") {
		t.Fatalf("expected Brain Cancer, got %v", tags)
	}
	if contains(tags, "Cancer") {
		t.Fatalf("generic Cancer tag should be dropped, got %v", tags)
	}
}

func TestNormalizeGenericCancerWithoutOrgan(t *testing.T) {
	n := New(testVocabulary())
	tags := n.Normalize("battling a malignancy of unknown origin")
	if len(tags) != 1 || tags[0] != "Cancer" {
		t.Fatalf("expected only generic Cancer, got %v", tags)
	}
}

func TestNormalizeMultipleOrgans(t *testing.T) {
	n := New(testVocabulary())
	tags := n.Normalize("carcinoma spread across the lung and brain")
	if !contains(tags, "Lung Cancer") || !contains(tags, "Brain Cancer") {
		t.Fatalf("expected both organ tags, got %v", tags)
	}
	if contains(tags, "Cancer") {
		t.Fatalf("generic Cancer tag should be dropped, got %v", tags)
	}
}

func TestNormalizePunctuationAndCase(t *testing.T) {
	n := New(testVocabulary())
	tags := n.Normalize("  HIGH   blood-pressure!! ")
	if !contains(tags, "Hypertension") {
		t.Fatalf("expected Hypertension, got %v", tags)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := New(testVocabulary())
	if tags := n.Normalize("   "); len(tags) != 0 {
		t.Fatalf("expected no tags for blank input, got %v", tags)
	}
}

func TestNormalizeOrFallback(t *testing.T) {
	n := New(testVocabulary())

	if tags := n.NormalizeOrFallback(""); len(tags) != 0 {
		t.Fatalf("expected empty result for empty input, got %v", tags)
	}
	if tags := n.NormalizeOrFallback("   "); len(tags) != 0 {
		t.Fatalf("expected empty result for whitespace input, got %v", tags)
	}

	tags := n.NormalizeOrFallback("xyz-nonsense")
	if len(tags) != 1 || tags[0] != "xyz-nonsense" {
		t.Fatalf("expected verbatim fallback, got %v", tags)
	}

	tags = n.NormalizeOrFallback("lung cancer")
	if len(tags) != 1 || tags[0] != "Lung Cancer" {
		t.Fatalf("expected canonical tag instead of fallback, got %v", tags)
	}
}

func TestSynonymClaimedByFirstDeclaration(t *testing.T) {
	vocab := testVocabulary()
	vocab.Conditions = append(vocab.Conditions, vocabulary.CanonicalCondition{
		Tag: "Duplicate", Synonyms: []string{"glioma"},
	})
	n := New(vocab)
	tags := n.Normalize("glioma")
	if contains(tags, "Duplicate") {
		t.Fatalf("later declaration must not claim an owned synonym, got %v", tags)
	}
	if !contains(tags, "Brain Cancer") {
		t.Fatalf("expected Brain Cancer, got %v", tags)
	}
}

func TestDefaultVocabularyLoads(t *testing.T) {
	vocab, err := vocabulary.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := New(vocab)
	tags := n.Normalize("I have pain in my lungs and sometimes cough blood from a tumor")
	if !contains(tags, "Lung Cancer") {
		t.Fatalf("expected Lung Cancer from default vocabulary, got %v", tags)
	}
}
