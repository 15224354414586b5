package matching

import (
	"context"

	"github.com/trialbridge-health/platform/pkg/common/logger"
	"github.com/trialbridge-health/platform/pkg/common/models"
)

// Store is the slice of the content catalog the matching engine reads. The
// gorm repository in pkg/catalog implements it; tests swap in fakes.
type Store interface {
	FindMatching(ctx context.Context, kind models.ContentKind, tags []string, limit int) ([]models.ContentItem, error)
	ListRecent(ctx context.Context, kind models.ContentKind, limit int) ([]models.ContentItem, error)
	CountByKind(ctx context.Context, kind models.ContentKind) (int64, error)
	HasJoinedExperts(ctx context.Context) (bool, error)
	FindMatchingExperts(ctx context.Context, states []models.AffiliationState, tags []string, limit int) ([]models.ContentItem, error)
	ListExperts(ctx context.Context, states []models.AffiliationState, limit int) ([]models.ContentItem, error)
	ExpertNameExists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, item *models.ContentItem) error
}

// Enricher triggers the dedup & enrichment pipeline. Failures inside a read
// path are best-effort and never fail the surrounding query.
type Enricher interface {
	Run(ctx context.Context, terms []string, kind models.ContentKind) (int, error)
}

type Service struct {
	store             Store
	enricher          Enricher
	personalizedLimit int
	browseLimit       int
}

func NewService(store Store, enricher Enricher, personalizedLimit, browseLimit int) *Service {
	if personalizedLimit <= 0 {
		personalizedLimit = 20
	}
	if browseLimit <= 0 {
		browseLimit = 50
	}
	return &Service{
		store:             store,
		enricher:          enricher,
		personalizedLimit: personalizedLimit,
		browseLimit:       browseLimit,
	}
}

// PersonalizedMatch returns catalog items relevant to the patient's tags,
// newest first, capped at the personalized page size. An empty tag set
// yields an empty list for every kind: no guessing without at least one
// tag. Publications lazily bootstrap the catalog when it is entirely empty.
func (s *Service) PersonalizedMatch(ctx context.Context, tags []string, kind models.ContentKind) ([]models.ContentItem, error) {
	if len(tags) == 0 {
		return []models.ContentItem{}, nil
	}

	if kind == models.KindExpert {
		return s.matchExperts(ctx, tags)
	}

	items, err := s.store.FindMatching(ctx, kind, tags, s.personalizedLimit)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 && kind == models.KindPublication {
		total, err := s.store.CountByKind(ctx, kind)
		if err != nil {
			return nil, err
		}
		if total == 0 {
			s.bootstrap(ctx, tags, kind)
			items, err = s.store.FindMatching(ctx, kind, tags, s.personalizedLimit)
			if err != nil {
				return nil, err
			}
		}
	}

	return items, nil
}

// Browse lists a kind unfiltered, newest first, at the browse page size.
func (s *Service) Browse(ctx context.Context, kind models.ContentKind) ([]models.ContentItem, error) {
	return s.store.ListRecent(ctx, kind, s.browseLimit)
}

// bootstrap runs the import pipeline for the patient's first two tags. It
// fires only on a cold catalog and its failure leaves the original (empty)
// result in place.
func (s *Service) bootstrap(ctx context.Context, tags []string, kind models.ContentKind) {
	if s.enricher == nil {
		return
	}
	terms := tags
	if len(terms) > 2 {
		terms = terms[:2]
	}
	imported, err := s.enricher.Run(ctx, terms, kind)
	if err != nil {
		logger.Log.WithError(err).WithField("kind", string(kind)).Warn("lazy bootstrap import failed")
		return
	}
	logger.Log.WithFields(map[string]interface{}{
		"kind":     string(kind),
		"imported": imported,
	}).Info("lazy bootstrap import completed")
}
