package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trialbridge-health/platform/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrDuplicate is returned by Create when the (kind, external_identifier)
// or platform-expert account constraint rejects the row. The import
// pipeline treats it as a dedup outcome, not a failure.
var ErrDuplicate = errors.New("catalog: duplicate content item")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type contentItemModel struct {
	ID                 uuid.UUID      `gorm:"primaryKey;column:id"`
	Kind               string         `gorm:"column:kind;index"`
	Title              string         `gorm:"column:title"`
	Description        string         `gorm:"column:description"`
	Summary            string         `gorm:"column:summary"`
	Tags               datatypes.JSON `gorm:"column:tags"`
	Attributes         datatypes.JSON `gorm:"column:attributes"`
	ExternalIdentifier string         `gorm:"column:external_identifier"`
	Provenance         string         `gorm:"column:provenance"`
	AffiliationState   string         `gorm:"column:affiliation_state"`
	AccountRef         *uuid.UUID     `gorm:"column:account_ref"`
	CreatedAt          time.Time      `gorm:"column:created_at"`
}

func (contentItemModel) TableName() string { return "content_items" }

func (r *Repository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&contentItemModel{}); err != nil {
		return err
	}
	// Partial unique indexes back the application-level dedup checks: the
	// check-then-insert sequence is not atomic under concurrent imports.
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_content_kind_external_identifier
			ON content_items (kind, external_identifier)
			WHERE external_identifier <> ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_content_platform_expert_account
			ON content_items (account_ref)
			WHERE account_ref IS NOT NULL AND provenance = 'platform'`,
	}
	for _, stmt := range stmts {
		if err := r.db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, item *models.ContentItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	row, err := toModel(item)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// FindMatching applies the personalized predicate uniformly for all kinds:
// a row matches when its tag set intersects the patient's tags exactly, or
// any patient tag appears as a case-insensitive substring of the title or
// description. Results come back newest first.
func (r *Repository) FindMatching(ctx context.Context, kind models.ContentKind, tags []string, limit int) ([]models.ContentItem, error) {
	if len(tags) == 0 {
		return []models.ContentItem{}, nil
	}
	where, args := matchPredicate(tags)
	var rows []contentItemModel
	err := r.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		Where(where, args...).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromModels(rows)
}

func (r *Repository) ListRecent(ctx context.Context, kind models.ContentKind, limit int) ([]models.ContentItem, error) {
	var rows []contentItemModel
	err := r.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromModels(rows)
}

func (r *Repository) CountByKind(ctx context.Context, kind models.ContentKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&contentItemModel{}).
		Where("kind = ?", string(kind)).
		Count(&count).Error
	return count, err
}

func (r *Repository) HasJoinedExperts(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&contentItemModel{}).
		Where("kind = ?", string(models.KindExpert)).
		Where("affiliation_state IN ?", affiliationStrings(models.JoinedAffiliations())).
		Count(&count).Error
	return count > 0, err
}

// FindMatchingExperts applies the personalized predicate within an
// affiliation tier. Platform members sort ahead of every other state.
func (r *Repository) FindMatchingExperts(ctx context.Context, states []models.AffiliationState, tags []string, limit int) ([]models.ContentItem, error) {
	if len(tags) == 0 {
		return []models.ContentItem{}, nil
	}
	where, args := matchPredicate(tags)
	var rows []contentItemModel
	err := r.db.WithContext(ctx).
		Where("kind = ?", string(models.KindExpert)).
		Where("affiliation_state IN ?", affiliationStrings(states)).
		Where(where, args...).
		Order(expertOrder).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromModels(rows)
}

func (r *Repository) ListExperts(ctx context.Context, states []models.AffiliationState, limit int) ([]models.ContentItem, error) {
	var rows []contentItemModel
	err := r.db.WithContext(ctx).
		Where("kind = ?", string(models.KindExpert)).
		Where("affiliation_state IN ?", affiliationStrings(states)).
		Order(expertOrder).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromModels(rows)
}

func (r *Repository) ExpertNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&contentItemModel{}).
		Where("kind = ?", string(models.KindExpert)).
		Where("LOWER(title) = LOWER(?)", name).
		Count(&count).Error
	return count > 0, err
}

// FindByExternalIdentifier returns (nil, nil) when no row matches.
func (r *Repository) FindByExternalIdentifier(ctx context.Context, kind models.ContentKind, identifier string) (*models.ContentItem, error) {
	var row contentItemModel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND external_identifier = ?", string(kind), identifier).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item, err := fromModel(row)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByTitle matches the title case-insensitively; (nil, nil) when absent.
func (r *Repository) FindByTitle(ctx context.Context, kind models.ContentKind, title string) (*models.ContentItem, error) {
	var row contentItemModel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND LOWER(title) = LOWER(?)", string(kind), title).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item, err := fromModel(row)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

const expertOrder = "(affiliation_state = 'platform_member') DESC, created_at DESC"

// matchPredicate builds the shared tag-overlap-or-substring filter.
// jsonb_exists_any is the function form of the ?| operator, which would
// otherwise collide with the driver's placeholder syntax.
func matchPredicate(tags []string) (string, []interface{}) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tags)), ",")
	clauses := []string{fmt.Sprintf("jsonb_exists_any(tags::jsonb, ARRAY[%s])", placeholders)}
	args := make([]interface{}, 0, 3*len(tags))
	for _, tag := range tags {
		args = append(args, tag)
	}
	for _, tag := range tags {
		clauses = append(clauses, "(title ILIKE ? OR description ILIKE ?)")
		pattern := "%" + tag + "%"
		args = append(args, pattern, pattern)
	}
	// Parenthesized so the OR chain binds tighter than the surrounding
	// AND conditions.
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func affiliationStrings(states []models.AffiliationState) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		out = append(out, string(s))
	}
	return out
}

func toModel(item *models.ContentItem) (*contentItemModel, error) {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	row := &contentItemModel{
		ID:                 item.ID,
		Kind:               string(item.Kind),
		Title:              item.Title,
		Description:        item.Description,
		Summary:            item.Summary,
		Tags:               datatypes.JSON(tagsJSON),
		ExternalIdentifier: item.ExternalIdentifier,
		Provenance:         string(item.Provenance),
		AffiliationState:   string(item.AffiliationState),
		AccountRef:         item.AccountRef,
		CreatedAt:          item.CreatedAt,
	}
	if item.Attributes != nil {
		attrJSON, err := json.Marshal(item.Attributes)
		if err != nil {
			return nil, err
		}
		row.Attributes = datatypes.JSON(attrJSON)
	}
	return row, nil
}

func fromModel(row contentItemModel) (models.ContentItem, error) {
	item := models.ContentItem{
		ID:                 row.ID,
		Kind:               models.ContentKind(row.Kind),
		Title:              row.Title,
		Description:        row.Description,
		Summary:            row.Summary,
		ExternalIdentifier: row.ExternalIdentifier,
		Provenance:         models.Provenance(row.Provenance),
		AffiliationState:   models.AffiliationState(row.AffiliationState),
		AccountRef:         row.AccountRef,
		CreatedAt:          row.CreatedAt,
	}
	if len(row.Tags) > 0 {
		if err := json.Unmarshal(row.Tags, &item.Tags); err != nil {
			return models.ContentItem{}, err
		}
	}
	if len(row.Attributes) > 0 {
		if err := json.Unmarshal(row.Attributes, &item.Attributes); err != nil {
			return models.ContentItem{}, err
		}
	}
	return item, nil
}

func fromModels(rows []contentItemModel) ([]models.ContentItem, error) {
	items := make([]models.ContentItem, 0, len(rows))
	for _, row := range rows {
		item, err := fromModel(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
