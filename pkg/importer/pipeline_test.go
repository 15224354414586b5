package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/trialbridge-health/platform/pkg/catalog"
	"github.com/trialbridge-health/platform/pkg/common/logger"
	"github.com/trialbridge-health/platform/pkg/common/models"
)

func init() {
	logger.Init("importer-test")
}

type fakeStore struct {
	items     []models.ContentItem
	failReads bool
}

func (s *fakeStore) FindByExternalIdentifier(ctx context.Context, kind models.ContentKind, identifier string) (*models.ContentItem, error) {
	if s.failReads {
		return nil, fmt.Errorf("store unavailable")
	}
	for i := range s.items {
		if s.items[i].Kind == kind && s.items[i].ExternalIdentifier == identifier {
			return &s.items[i], nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByTitle(ctx context.Context, kind models.ContentKind, title string) (*models.ContentItem, error) {
	if s.failReads {
		return nil, fmt.Errorf("store unavailable")
	}
	for i := range s.items {
		if s.items[i].Kind == kind && strings.EqualFold(s.items[i].Title, title) {
			return &s.items[i], nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(ctx context.Context, item *models.ContentItem) error {
	if item.ExternalIdentifier != "" {
		for _, existing := range s.items {
			if existing.Kind == item.Kind && existing.ExternalIdentifier == item.ExternalIdentifier {
				return catalog.ErrDuplicate
			}
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.items = append(s.items, *item)
	return nil
}

type stubConnector struct {
	name       string
	kind       models.ContentKind
	candidates []models.ImportCandidate
	err        error
	calls      int
}

func (c *stubConnector) Name() string { return c.name }

func (c *stubConnector) Kind() models.ContentKind { return c.kind }

func (c *stubConnector) FetchCandidates(ctx context.Context, term string, maxResults int) ([]models.ImportCandidate, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.candidates, nil
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(ctx context.Context, text string) string {
	return "summary: " + text
}

func publicationCandidate(title, doi string) models.ImportCandidate {
	return models.ImportCandidate{
		Title:                 title,
		AbstractOrDescription: "abstract for " + title,
		ExternalIdentifier:    doi,
		SourceTag:             "stub",
	}
}

func TestPipelinePersistsNewCandidates(t *testing.T) {
	store := &fakeStore{}
	connector := &stubConnector{
		name: "stub",
		kind: models.KindPublication,
		candidates: []models.ImportCandidate{
			publicationCandidate("Metformin outcomes", "10.1/met"),
			publicationCandidate("Insulin therapy review", "10.1/ins"),
		},
	}
	pipeline := NewPipeline(store, stubSummarizer{}, nil, []Connector{connector}, 0, 0, nil)

	inserted, err := pipeline.Run(context.Background(), []string{"Diabetes Mellitus"}, models.KindPublication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}
	if len(store.items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(store.items))
	}
	first := store.items[0]
	if first.Provenance != models.ProvenanceImported {
		t.Fatalf("expected imported provenance, got %s", first.Provenance)
	}
	if first.Summary != "summary: abstract for Metformin outcomes" {
		t.Fatalf("unexpected summary %q", first.Summary)
	}
	if len(first.Tags) == 0 || first.Tags[0] != "Diabetes Mellitus" {
		t.Fatalf("expected query term as tag, got %v", first.Tags)
	}
}

func TestPipelineIdempotentAcrossRuns(t *testing.T) {
	store := &fakeStore{}
	connector := &stubConnector{
		name:       "stub",
		kind:       models.KindPublication,
		candidates: []models.ImportCandidate{publicationCandidate("Stable paper", "10.1/stable")},
	}
	pipeline := NewPipeline(store, stubSummarizer{}, nil, []Connector{connector}, 0, 0, nil)

	if inserted, err := pipeline.Run(context.Background(), []string{"asthma"}, models.KindPublication); err != nil || inserted != 1 {
		t.Fatalf("first run: inserted=%d err=%v", inserted, err)
	}
	inserted, err := pipeline.Run(context.Background(), []string{"asthma"}, models.KindPublication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("second run must insert nothing, got %d", inserted)
	}
	if len(store.items) != 1 {
		t.Fatalf("expected 1 row after two runs, got %d", len(store.items))
	}
}

func TestPipelineDedupsIdenticalIdentifierWithinRun(t *testing.T) {
	store := &fakeStore{}
	connector := &stubConnector{
		name: "stub",
		kind: models.KindPublication,
		candidates: []models.ImportCandidate{
			publicationCandidate("Paper A", "10.1/abc"),
			publicationCandidate("Paper B", "10.1/abc"),
		},
	}
	pipeline := NewPipeline(store, stubSummarizer{}, nil, []Connector{connector}, 0, 0, nil)

	inserted, err := pipeline.Run(context.Background(), []string{"cancer"}, models.KindPublication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("expected 1 inserted for duplicate identifiers, got %d", inserted)
	}
}

func TestPipelineTitleFallbackDedupIsCaseInsensitive(t *testing.T) {
	store := &fakeStore{}
	store.items = append(store.items, models.ContentItem{
		ID:    uuid.New(),
		Kind:  models.KindTrial,
		Title: "A Study of Something",
	})
	connector := &stubConnector{
		name: "registry",
		kind: models.KindTrial,
		candidates: []models.ImportCandidate{
			{Title: "a study of SOMETHING", SourceTag: "registry"},
		},
	}
	pipeline := NewPipeline(store, stubSummarizer{}, nil, []Connector{connector}, 0, 0, nil)

	inserted, err := pipeline.Run(context.Background(), []string{"something"}, models.KindTrial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected title dedup to discard candidate, got %d inserted", inserted)
	}
}

func TestPipelineConnectorFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	failing := &stubConnector{name: "down", kind: models.KindPublication, err: fmt.Errorf("network down")}
	working := &stubConnector{
		name:       "up",
		kind:       models.KindPublication,
		candidates: []models.ImportCandidate{publicationCandidate("Reachable paper", "10.1/up")},
	}
	pipeline := NewPipeline(store, stubSummarizer{}, nil, []Connector{failing, working}, 0, 0, nil)

	inserted, err := pipeline.Run(context.Background(), []string{"stroke"}, models.KindPublication)
	if err != nil {
		t.Fatalf("connector failure must not fail the pipeline: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("expected the working connector's candidate, got %d", inserted)
	}
}

func TestPipelineSkipsConnectorsOfOtherKinds(t *testing.T) {
	store := &fakeStore{}
	trials := &stubConnector{name: "registry", kind: models.KindTrial}
	pubs := &stubConnector{
		name:       "literature",
		kind:       models.KindPublication,
		candidates: []models.ImportCandidate{publicationCandidate("Only pubs", "10.1/pub")},
	}
	pipeline := NewPipeline(store, stubSummarizer{}, nil, []Connector{trials, pubs}, 0, 0, nil)

	if _, err := pipeline.Run(context.Background(), []string{"copd"}, models.KindPublication); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trials.calls != 0 {
		t.Fatalf("trial connector must not run for publication imports")
	}
	if pubs.calls != 1 {
		t.Fatalf("publication connector expected exactly once, got %d", pubs.calls)
	}
}

func TestPipelineStorageErrorAborts(t *testing.T) {
	store := &fakeStore{failReads: true}
	connector := &stubConnector{
		name:       "stub",
		kind:       models.KindPublication,
		candidates: []models.ImportCandidate{publicationCandidate("Paper", "10.1/x")},
	}
	pipeline := NewPipeline(store, stubSummarizer{}, nil, []Connector{connector}, 0, 0, nil)

	if _, err := pipeline.Run(context.Background(), []string{"cancer"}, models.KindPublication); err == nil {
		t.Fatal("expected storage error to propagate")
	}
}

func TestPipelineUsesTitleWhenAbstractEmpty(t *testing.T) {
	store := &fakeStore{}
	connector := &stubConnector{
		name: "stub",
		kind: models.KindPublication,
		candidates: []models.ImportCandidate{
			{Title: "Title only paper", ExternalIdentifier: "10.1/t", SourceTag: "stub"},
		},
	}
	pipeline := NewPipeline(store, stubSummarizer{}, nil, []Connector{connector}, 0, 0, nil)

	if _, err := pipeline.Run(context.Background(), []string{"cancer"}, models.KindPublication); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.items[0].Summary != "summary: Title only paper" {
		t.Fatalf("expected title-based summary, got %q", store.items[0].Summary)
	}
}
