package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/trialbridge-health/platform/pkg/common/models"
)

// ClinicalTrialsConnector queries the ClinicalTrials.gov v2 API for studies
// matching a condition term. Trial rows carry no external identifier; the
// NCT id is preserved inside the raw fields and dedup falls back to title.
type ClinicalTrialsConnector struct {
	baseURL string
	client  *http.Client
}

func NewClinicalTrialsConnector(baseURL string, client *http.Client) *ClinicalTrialsConnector {
	return &ClinicalTrialsConnector{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (c *ClinicalTrialsConnector) Name() string { return "clinicaltrials.gov" }

func (c *ClinicalTrialsConnector) Kind() models.ContentKind { return models.KindTrial }

func (c *ClinicalTrialsConnector) FetchCandidates(ctx context.Context, term string, maxResults int) ([]models.ImportCandidate, error) {
	query := url.Values{}
	query.Set("query.term", term)
	query.Set("pageSize", fmt.Sprintf("%d", maxResults))

	endpoint := fmt.Sprintf("%s/api/v2/studies?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clinicaltrials search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clinicaltrials returned status %d", resp.StatusCode)
	}

	var payload struct {
		Studies []struct {
			ProtocolSection struct {
				IdentificationModule struct {
					NCTID      string `json:"nctId"`
					BriefTitle string `json:"briefTitle"`
				} `json:"identificationModule"`
				DescriptionModule struct {
					BriefSummary string `json:"briefSummary"`
				} `json:"descriptionModule"`
				ConditionsModule struct {
					Conditions []string `json:"conditions"`
				} `json:"conditionsModule"`
				StatusModule struct {
					OverallStatus string `json:"overallStatus"`
				} `json:"statusModule"`
			} `json:"protocolSection"`
		} `json:"studies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("clinicaltrials response malformed: %w", err)
	}

	candidates := make([]models.ImportCandidate, 0, len(payload.Studies))
	for _, study := range payload.Studies {
		section := study.ProtocolSection
		if section.IdentificationModule.BriefTitle == "" {
			continue
		}
		raw := map[string]interface{}{}
		if section.IdentificationModule.NCTID != "" {
			raw["nct_id"] = section.IdentificationModule.NCTID
		}
		if len(section.ConditionsModule.Conditions) > 0 {
			raw["conditions"] = section.ConditionsModule.Conditions
		}
		if section.StatusModule.OverallStatus != "" {
			raw["overall_status"] = section.StatusModule.OverallStatus
		}
		candidates = append(candidates, models.ImportCandidate{
			Title:                 section.IdentificationModule.BriefTitle,
			AbstractOrDescription: section.DescriptionModule.BriefSummary,
			SourceTag:             c.Name(),
			RawFields:             raw,
		})
	}
	return candidates, nil
}
