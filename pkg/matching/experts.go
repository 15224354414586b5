package matching

import (
	"context"
	"errors"
	"strings"

	"github.com/trialbridge-health/platform/pkg/catalog"
	"github.com/trialbridge-health/platform/pkg/common/logger"
	"github.com/trialbridge-health/platform/pkg/common/models"
	"github.com/trialbridge-health/platform/pkg/observability/metrics"
)

// authorScanLimit bounds how many recent publications feed the
// author-derived expert import.
const authorScanLimit = 100

// matchExperts applies the visibility tiering policy. When any platform
// member or externally imported expert exists, only that tier is shown.
// Otherwise the cold tier is populated first (author-derived stand-ins,
// then the fixed seed set) so the list is never empty on a fresh
// deployment. Within the chosen tier, a tag match is preferred but the
// whole tier is returned when no expert matches the patient's tags.
func (s *Service) matchExperts(ctx context.Context, tags []string) ([]models.ContentItem, error) {
	hasJoined, err := s.store.HasJoinedExperts(ctx)
	if err != nil {
		return nil, err
	}

	states := models.JoinedAffiliations()
	if !hasJoined {
		created, err := s.importAuthorExperts(ctx)
		if err != nil {
			logger.Log.WithError(err).Warn("author-derived expert import failed")
		}
		if created == 0 {
			if err := s.seedPlaceholderExperts(ctx); err != nil {
				logger.Log.WithError(err).Warn("placeholder expert seeding failed")
			}
		}
		states = []models.AffiliationState{models.AffiliationSeedPlaceholder}
	}

	items, err := s.store.FindMatchingExperts(ctx, states, tags, s.personalizedLimit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		items, err = s.store.ListExperts(ctx, states, s.personalizedLimit)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

// importAuthorExperts derives expert stand-ins from the author names of
// publications already in the catalog, skipping names that already have an
// expert row. Returns the number of rows created.
func (s *Service) importAuthorExperts(ctx context.Context) (int, error) {
	publications, err := s.store.ListRecent(ctx, models.KindPublication, authorScanLimit)
	if err != nil {
		return 0, err
	}

	created := 0
	seen := make(map[string]struct{})
	for _, publication := range publications {
		for _, author := range publication.Authors() {
			key := strings.ToLower(strings.TrimSpace(author))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			exists, err := s.store.ExpertNameExists(ctx, author)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}

			expert := &models.ContentItem{
				Kind:        models.KindExpert,
				Title:       author,
				Description: "Author of " + publication.Title,
				Tags:        publication.Tags,
				Attributes: map[string]interface{}{
					"derived_from": publication.Title,
				},
				Provenance:       models.ProvenanceImported,
				AffiliationState: models.AffiliationSeedPlaceholder,
			}
			if err := s.store.Create(ctx, expert); err != nil {
				if errors.Is(err, catalog.ErrDuplicate) {
					continue
				}
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// seedPlaceholderExperts inserts the fixed placeholder set, deduplicating
// by name so repeated cold-tier queries stay idempotent.
func (s *Service) seedPlaceholderExperts(ctx context.Context) error {
	for _, expert := range seedExperts() {
		exists, err := s.store.ExpertNameExists(ctx, expert.Title)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		expert := expert
		if err := s.store.Create(ctx, &expert); err != nil {
			if errors.Is(err, catalog.ErrDuplicate) {
				continue
			}
			return err
		}
		metrics.IncSeededExperts()
	}
	return nil
}
