package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContentKind discriminates the three catalog record types.
type ContentKind string

const (
	KindTrial       ContentKind = "trial"
	KindPublication ContentKind = "publication"
	KindExpert      ContentKind = "expert"
)

func ParseContentKind(raw string) (ContentKind, error) {
	switch ContentKind(raw) {
	case KindTrial, KindPublication, KindExpert:
		return ContentKind(raw), nil
	}
	return "", fmt.Errorf("unknown content kind %q", raw)
}

// Provenance records how a catalog row entered the platform.
type Provenance string

const (
	ProvenancePlatform Provenance = "platform"
	ProvenanceImported Provenance = "imported"
	ProvenanceSeeded   Provenance = "seeded"
)

// AffiliationState applies to expert rows only. A platform member is backed
// by a real account, an external import came from a third-party source, and
// a seed placeholder exists so a cold deployment never shows an empty list.
type AffiliationState string

const (
	AffiliationPlatformMember  AffiliationState = "platform_member"
	AffiliationExternalImport  AffiliationState = "external_import"
	AffiliationSeedPlaceholder AffiliationState = "seed_placeholder"
)

// JoinedAffiliations are the states that count as a real expert presence on
// the platform for visibility tiering.
func JoinedAffiliations() []AffiliationState {
	return []AffiliationState{AffiliationPlatformMember, AffiliationExternalImport}
}

// ContentItem is a trial, publication or expert in the catalog. Title holds
// the expert's display name for expert rows; ExternalIdentifier carries the
// DOI for publications and is empty for trials and experts.
type ContentItem struct {
	ID                 uuid.UUID              `json:"id"`
	Kind               ContentKind            `json:"kind"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description,omitempty"`
	Summary            string                 `json:"summary,omitempty"`
	Tags               []string               `json:"tags"`
	Attributes         map[string]interface{} `json:"attributes,omitempty"`
	ExternalIdentifier string                 `json:"external_identifier,omitempty"`
	Provenance         Provenance             `json:"provenance"`
	AffiliationState   AffiliationState       `json:"affiliation_state,omitempty"`
	AccountRef         *uuid.UUID             `json:"account_ref,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

// Authors extracts the author names stored in a publication's attributes.
// Attributes round-trip through a JSON column, so the list may come back as
// []interface{}.
func (c ContentItem) Authors() []string {
	raw, ok := c.Attributes["authors"]
	if !ok {
		return nil
	}
	switch list := raw.(type) {
	case []string:
		return list
	case []interface{}:
		names := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok && s != "" {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

// ImportCandidate is the ephemeral record a connector hands to the dedup
// pipeline. It is never persisted as-is.
type ImportCandidate struct {
	Title                 string                 `json:"title"`
	AbstractOrDescription string                 `json:"abstract_or_description,omitempty"`
	ExternalIdentifier    string                 `json:"external_identifier,omitempty"`
	SourceTag             string                 `json:"source_tag"`
	RawFields             map[string]interface{} `json:"raw_fields,omitempty"`
}

// Event is the envelope published to the catalog topic after the import
// pipeline persists a row.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// API payloads.

type NormalizeRequest struct {
	Text string `json:"text"`
}

type NormalizeResponse struct {
	Tags []string `json:"tags"`
}

type MatchRequest struct {
	Conditions []string `json:"conditions"`
	Kind       string   `json:"kind"`
}

type ImportRequest struct {
	Terms []string `json:"terms"`
	Kind  string   `json:"kind"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}
