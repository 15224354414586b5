package importer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/trialbridge-health/platform/pkg/catalog"
	"github.com/trialbridge-health/platform/pkg/common/logger"
	"github.com/trialbridge-health/platform/pkg/common/models"
	"github.com/trialbridge-health/platform/pkg/observability/metrics"
)

// Pipeline pulls candidates from every configured connector for a kind,
// drops the ones already in the catalog, attaches a generated summary and
// persists the survivors with imported provenance. Connector and summary
// failures are never fatal; only storage errors abort the run.
type Pipeline struct {
	store            Store
	summarizer       Summarizer
	publisher        Publisher
	connectors       []Connector
	connectorTimeout time.Duration
	maxPerConnector  int
	cache            *Cache
}

func NewPipeline(store Store, summarizer Summarizer, publisher Publisher, connectors []Connector, connectorTimeout time.Duration, maxPerConnector int, cache *Cache) *Pipeline {
	if connectorTimeout <= 0 {
		connectorTimeout = 10 * time.Second
	}
	if maxPerConnector <= 0 {
		maxPerConnector = 5
	}
	return &Pipeline{
		store:            store,
		summarizer:       summarizer,
		publisher:        publisher,
		connectors:       connectors,
		connectorTimeout: connectorTimeout,
		maxPerConnector:  maxPerConnector,
		cache:            cache,
	}
}

type termCandidate struct {
	term      string
	candidate models.ImportCandidate
}

// Run executes the dedup & enrichment pipeline for the given terms and
// target kind and returns the number of rows actually persisted. Running it
// twice against an unchanged catalog persists rows only on the first run.
func (p *Pipeline) Run(ctx context.Context, terms []string, kind models.ContentKind) (int, error) {
	var flattened []termCandidate
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		for _, connector := range p.connectors {
			if connector.Kind() != kind {
				continue
			}
			candidates := p.fetch(ctx, connector, term)
			for _, candidate := range candidates {
				flattened = append(flattened, termCandidate{term: term, candidate: candidate})
			}
		}
	}

	inserted := 0
	seenIdentifiers := make(map[string]struct{})
	seenTitles := make(map[string]struct{})
	for _, tc := range flattened {
		duplicate, err := p.isDuplicate(ctx, kind, tc.candidate, seenIdentifiers, seenTitles)
		if err != nil {
			return inserted, err
		}
		if duplicate {
			continue
		}

		item := p.buildItem(ctx, kind, tc)
		if err := p.store.Create(ctx, item); err != nil {
			if errors.Is(err, catalog.ErrDuplicate) {
				// storage constraint is the dedup backstop under
				// concurrent imports
				continue
			}
			return inserted, err
		}
		inserted++
		metrics.IncImportedItems()
		p.publish(ctx, item)
	}
	return inserted, nil
}

func (p *Pipeline) fetch(ctx context.Context, connector Connector, term string) []models.ImportCandidate {
	if cached, ok := p.cache.Get(ctx, connector.Name(), term); ok {
		return cached
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.connectorTimeout)
	defer cancel()

	candidates, err := connector.FetchCandidates(fetchCtx, term, p.maxPerConnector)
	if err != nil {
		metrics.IncConnectorFailures()
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"connector": connector.Name(),
			"term":      term,
		}).Warn("connector fetch failed, treating as zero candidates")
		return nil
	}
	p.cache.Put(ctx, connector.Name(), term, candidates)
	return candidates
}

func (p *Pipeline) isDuplicate(ctx context.Context, kind models.ContentKind, candidate models.ImportCandidate, seenIdentifiers, seenTitles map[string]struct{}) (bool, error) {
	if id := strings.TrimSpace(candidate.ExternalIdentifier); id != "" {
		if _, ok := seenIdentifiers[id]; ok {
			return true, nil
		}
		existing, err := p.store.FindByExternalIdentifier(ctx, kind, id)
		if err != nil {
			return false, err
		}
		if existing != nil {
			return true, nil
		}
		seenIdentifiers[id] = struct{}{}
	}

	titleKey := strings.ToLower(strings.TrimSpace(candidate.Title))
	if titleKey == "" {
		return true, nil
	}
	if _, ok := seenTitles[titleKey]; ok {
		return true, nil
	}
	existing, err := p.store.FindByTitle(ctx, kind, candidate.Title)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return true, nil
	}
	seenTitles[titleKey] = struct{}{}
	return false, nil
}

func (p *Pipeline) buildItem(ctx context.Context, kind models.ContentKind, tc termCandidate) *models.ContentItem {
	candidate := tc.candidate

	summarySource := candidate.AbstractOrDescription
	if strings.TrimSpace(summarySource) == "" {
		summarySource = candidate.Title
	}
	generated := p.summarizer.Summarize(ctx, summarySource)

	// conditions may be []interface{} after a cache round-trip
	tags := []string{tc.term}
	switch conditions := candidate.RawFields["conditions"].(type) {
	case []string:
		tags = appendUnique(tags, conditions)
	case []interface{}:
		for _, v := range conditions {
			if s, ok := v.(string); ok {
				tags = appendUnique(tags, []string{s})
			}
		}
	}

	attributes := map[string]interface{}{"source": candidate.SourceTag}
	for k, v := range candidate.RawFields {
		attributes[k] = v
	}

	return &models.ContentItem{
		Kind:               kind,
		Title:              candidate.Title,
		Description:        candidate.AbstractOrDescription,
		Summary:            generated,
		Tags:               tags,
		Attributes:         attributes,
		ExternalIdentifier: strings.TrimSpace(candidate.ExternalIdentifier),
		Provenance:         models.ProvenanceImported,
	}
}

func (p *Pipeline) publish(ctx context.Context, item *models.ContentItem) {
	if p.publisher == nil {
		return
	}
	data := map[string]interface{}{
		"content_id": item.ID.String(),
		"kind":       string(item.Kind),
		"title":      item.Title,
	}
	if err := p.publisher.PublishEvent(ctx, "catalog.imported", "import-pipeline", data); err != nil {
		logger.Log.WithError(err).Warn("catalog event publish failed")
	}
}

func appendUnique(tags []string, extra []string) []string {
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		seen[t] = struct{}{}
	}
	for _, t := range extra {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}
