package matching

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/trialbridge-health/platform/pkg/catalog"
	"github.com/trialbridge-health/platform/pkg/common/logger"
	"github.com/trialbridge-health/platform/pkg/common/models"
)

func init() {
	logger.Init("matching-test")
}

// fakeStore mirrors the repository's documented predicate in Go so the
// service policy can be exercised without a database.
type fakeStore struct {
	items    []models.ContentItem
	failAll  bool
	sequence int
}

func (s *fakeStore) add(item models.ContentItem) models.ContentItem {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.sequence++
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Unix(int64(s.sequence), 0)
	}
	s.items = append(s.items, item)
	return item
}

func matchesPredicate(item models.ContentItem, tags []string) bool {
	for _, tag := range tags {
		for _, itemTag := range item.Tags {
			if itemTag == tag {
				return true
			}
		}
		needle := strings.ToLower(tag)
		if strings.Contains(strings.ToLower(item.Title), needle) ||
			strings.Contains(strings.ToLower(item.Description), needle) {
			return true
		}
	}
	return false
}

func (s *fakeStore) collect(limit int, keep func(models.ContentItem) bool) []models.ContentItem {
	var out []models.ContentItem
	// newest first
	for i := len(s.items) - 1; i >= 0; i-- {
		if keep(s.items[i]) {
			out = append(out, s.items[i])
		}
		if len(out) == limit {
			break
		}
	}
	if out == nil {
		out = []models.ContentItem{}
	}
	return out
}

func (s *fakeStore) FindMatching(ctx context.Context, kind models.ContentKind, tags []string, limit int) ([]models.ContentItem, error) {
	if s.failAll {
		return nil, fmt.Errorf("store unavailable")
	}
	return s.collect(limit, func(item models.ContentItem) bool {
		return item.Kind == kind && matchesPredicate(item, tags)
	}), nil
}

func (s *fakeStore) ListRecent(ctx context.Context, kind models.ContentKind, limit int) ([]models.ContentItem, error) {
	if s.failAll {
		return nil, fmt.Errorf("store unavailable")
	}
	return s.collect(limit, func(item models.ContentItem) bool {
		return item.Kind == kind
	}), nil
}

func (s *fakeStore) CountByKind(ctx context.Context, kind models.ContentKind) (int64, error) {
	if s.failAll {
		return 0, fmt.Errorf("store unavailable")
	}
	var count int64
	for _, item := range s.items {
		if item.Kind == kind {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) HasJoinedExperts(ctx context.Context) (bool, error) {
	if s.failAll {
		return false, fmt.Errorf("store unavailable")
	}
	for _, item := range s.items {
		if item.Kind != models.KindExpert {
			continue
		}
		if item.AffiliationState == models.AffiliationPlatformMember ||
			item.AffiliationState == models.AffiliationExternalImport {
			return true, nil
		}
	}
	return false, nil
}

func inStates(item models.ContentItem, states []models.AffiliationState) bool {
	for _, state := range states {
		if item.AffiliationState == state {
			return true
		}
	}
	return false
}

func (s *fakeStore) FindMatchingExperts(ctx context.Context, states []models.AffiliationState, tags []string, limit int) ([]models.ContentItem, error) {
	if s.failAll {
		return nil, fmt.Errorf("store unavailable")
	}
	return s.collect(limit, func(item models.ContentItem) bool {
		return item.Kind == models.KindExpert && inStates(item, states) && matchesPredicate(item, tags)
	}), nil
}

func (s *fakeStore) ListExperts(ctx context.Context, states []models.AffiliationState, limit int) ([]models.ContentItem, error) {
	if s.failAll {
		return nil, fmt.Errorf("store unavailable")
	}
	return s.collect(limit, func(item models.ContentItem) bool {
		return item.Kind == models.KindExpert && inStates(item, states)
	}), nil
}

func (s *fakeStore) ExpertNameExists(ctx context.Context, name string) (bool, error) {
	if s.failAll {
		return false, fmt.Errorf("store unavailable")
	}
	for _, item := range s.items {
		if item.Kind == models.KindExpert && strings.EqualFold(item.Title, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Create(ctx context.Context, item *models.ContentItem) error {
	if item.Kind == models.KindExpert {
		for _, existing := range s.items {
			if existing.Kind == models.KindExpert && strings.EqualFold(existing.Title, item.Title) {
				return catalog.ErrDuplicate
			}
		}
	}
	*item = s.add(*item)
	return nil
}

type fakeEnricher struct {
	store    *fakeStore
	calls    int
	terms    []string
	kind     models.ContentKind
	imported int
	err      error
}

func (e *fakeEnricher) Run(ctx context.Context, terms []string, kind models.ContentKind) (int, error) {
	e.calls++
	e.terms = terms
	e.kind = kind
	if e.err != nil {
		return 0, e.err
	}
	for i := 0; i < e.imported; i++ {
		e.store.add(models.ContentItem{
			Kind:       kind,
			Title:      fmt.Sprintf("Imported %s %d", terms[0], i),
			Tags:       []string{terms[0]},
			Provenance: models.ProvenanceImported,
		})
	}
	return e.imported, nil
}

func TestPersonalizedMatchEmptyTagsReturnsEmpty(t *testing.T) {
	store := &fakeStore{}
	store.add(models.ContentItem{Kind: models.KindTrial, Title: "Some trial", Tags: []string{"Cancer"}})
	service := NewService(store, nil, 20, 50)

	for _, kind := range []models.ContentKind{models.KindTrial, models.KindPublication, models.KindExpert} {
		items, err := service.PersonalizedMatch(context.Background(), nil, kind)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", kind, err)
		}
		if len(items) != 0 {
			t.Fatalf("expected empty result for %s without tags, got %d items", kind, len(items))
		}
	}
}

func TestPersonalizedMatchIncludesTagAndTextMatches(t *testing.T) {
	store := &fakeStore{}
	tagged := store.add(models.ContentItem{
		Kind:  models.KindPublication,
		Title: "Glycemic control in adults",
		Tags:  []string{"Diabetes Mellitus"},
	})
	textual := store.add(models.ContentItem{
		Kind:        models.KindPublication,
		Title:       "Blood pressure outcomes",
		Description: "Secondary analysis of diabetes mellitus cohorts",
		Tags:        []string{"Hypertension"},
	})
	unrelated := store.add(models.ContentItem{
		Kind:  models.KindPublication,
		Title: "Asthma inhaler adherence",
		Tags:  []string{"Asthma"},
	})
	service := NewService(store, nil, 20, 50)

	items, err := service.PersonalizedMatch(context.Background(), []string{"Diabetes Mellitus"}, models.KindPublication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected exactly the tag match and the text match, got %d items", len(items))
	}
	ids := map[uuid.UUID]bool{}
	for _, item := range items {
		ids[item.ID] = true
	}
	if !ids[tagged.ID] || !ids[textual.ID] {
		t.Fatalf("expected both matching publications, got %v", items)
	}
	if ids[unrelated.ID] {
		t.Fatal("unrelated publication must be excluded")
	}
}

func TestPublicationsLazyBootstrapOnEmptyCatalog(t *testing.T) {
	store := &fakeStore{}
	enricher := &fakeEnricher{store: store, imported: 2}
	service := NewService(store, enricher, 20, 50)

	tags := []string{"Diabetes Mellitus", "Hypertension", "Asthma"}
	items, err := service.PersonalizedMatch(context.Background(), tags, models.KindPublication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enricher.calls != 1 {
		t.Fatalf("expected one bootstrap run, got %d", enricher.calls)
	}
	if len(enricher.terms) != 2 || enricher.terms[0] != "Diabetes Mellitus" || enricher.terms[1] != "Hypertension" {
		t.Fatalf("bootstrap must use the first two tags, got %v", enricher.terms)
	}
	if len(items) == 0 {
		t.Fatal("expected re-read to surface imported publications")
	}
}

func TestLazyBootstrapSkippedWhenCatalogNonEmpty(t *testing.T) {
	store := &fakeStore{}
	store.add(models.ContentItem{
		Kind:  models.KindPublication,
		Title: "Existing unrelated paper",
		Tags:  []string{"Asthma"},
	})
	enricher := &fakeEnricher{store: store, imported: 1}
	service := NewService(store, enricher, 20, 50)

	items, err := service.PersonalizedMatch(context.Background(), []string{"Stroke"}, models.KindPublication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enricher.calls != 0 {
		t.Fatal("bootstrap must not fire when the catalog has rows")
	}
	if len(items) != 0 {
		t.Fatalf("expected empty result, got %d items", len(items))
	}
}

func TestLazyBootstrapNotUsedForTrials(t *testing.T) {
	store := &fakeStore{}
	enricher := &fakeEnricher{store: store, imported: 1}
	service := NewService(store, enricher, 20, 50)

	if _, err := service.PersonalizedMatch(context.Background(), []string{"Cancer"}, models.KindTrial); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enricher.calls != 0 {
		t.Fatal("trials must not trigger lazy bootstrap")
	}
}

func TestLazyBootstrapFailureStillReturnsEmptyResult(t *testing.T) {
	store := &fakeStore{}
	enricher := &fakeEnricher{store: store, err: fmt.Errorf("all connectors down")}
	service := NewService(store, enricher, 20, 50)

	items, err := service.PersonalizedMatch(context.Background(), []string{"Cancer"}, models.KindPublication)
	if err != nil {
		t.Fatalf("bootstrap failure must not fail the query: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty result, got %d items", len(items))
	}
}

func TestStorageErrorsPropagate(t *testing.T) {
	store := &fakeStore{failAll: true}
	service := NewService(store, nil, 20, 50)

	if _, err := service.PersonalizedMatch(context.Background(), []string{"Cancer"}, models.KindPublication); err == nil {
		t.Fatal("expected storage error to surface")
	}
}

func TestBrowseUsesBrowseLimit(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 60; i++ {
		store.add(models.ContentItem{Kind: models.KindTrial, Title: fmt.Sprintf("Trial %d", i)})
	}
	service := NewService(store, nil, 20, 50)

	items, err := service.Browse(context.Background(), models.KindTrial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 50 {
		t.Fatalf("expected browse page of 50, got %d", len(items))
	}
}

func TestPersonalizedMatchCapsPageSize(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 30; i++ {
		store.add(models.ContentItem{
			Kind:  models.KindPublication,
			Title: fmt.Sprintf("Diabetes paper %d", i),
			Tags:  []string{"Diabetes Mellitus"},
		})
	}
	service := NewService(store, nil, 20, 50)

	items, err := service.PersonalizedMatch(context.Background(), []string{"Diabetes Mellitus"}, models.KindPublication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 20 {
		t.Fatalf("expected personalized page of 20, got %d", len(items))
	}
}
