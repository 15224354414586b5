package importer

import (
	"context"

	"github.com/trialbridge-health/platform/pkg/common/models"
)

// Connector pulls candidate records for one query term from one external
// source. Implementations return an error for any failure (auth, network,
// malformed response); the pipeline downgrades every connector error to
// zero candidates.
type Connector interface {
	Name() string
	Kind() models.ContentKind
	FetchCandidates(ctx context.Context, term string, maxResults int) ([]models.ImportCandidate, error)
}

// Store is the slice of the content catalog the pipeline needs.
type Store interface {
	FindByExternalIdentifier(ctx context.Context, kind models.ContentKind, identifier string) (*models.ContentItem, error)
	FindByTitle(ctx context.Context, kind models.ContentKind, title string) (*models.ContentItem, error)
	Create(ctx context.Context, item *models.ContentItem) error
}

// Summarizer attaches a short description to an imported row. It never
// fails; a conforming implementation truncates when no backend is set.
type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

// Publisher emits catalog events after a row is persisted. Publishing is
// best-effort.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType, source string, data map[string]interface{}) error
}
