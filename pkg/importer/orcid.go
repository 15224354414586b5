package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/trialbridge-health/platform/pkg/common/models"
	"golang.org/x/oauth2/clientcredentials"
)

// ORCIDConnector looks up the works of a configured set of researcher iDs
// through the ORCID public API and keeps the ones whose title mentions the
// query term. The public API requires a client-credentials token.
type ORCIDConnector struct {
	baseURL       string
	researcherIDs []string
	oauth         *clientcredentials.Config
	client        *http.Client
}

func NewORCIDConnector(baseURL, tokenURL, clientID, clientSecret string, researcherIDs []string, client *http.Client) *ORCIDConnector {
	var oauth *clientcredentials.Config
	if clientID != "" && clientSecret != "" {
		oauth = &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{"/read-public"},
		}
	}
	return &ORCIDConnector{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		researcherIDs: researcherIDs,
		oauth:         oauth,
		client:        client,
	}
}

func (c *ORCIDConnector) Name() string { return "orcid" }

func (c *ORCIDConnector) Kind() models.ContentKind { return models.KindPublication }

func (c *ORCIDConnector) FetchCandidates(ctx context.Context, term string, maxResults int) ([]models.ImportCandidate, error) {
	if c.oauth == nil {
		return nil, fmt.Errorf("orcid credentials not configured")
	}
	if len(c.researcherIDs) == 0 {
		return nil, fmt.Errorf("no orcid researcher ids configured")
	}

	token, err := c.oauth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("orcid token request failed: %w", err)
	}

	needle := strings.ToLower(term)
	var candidates []models.ImportCandidate
	for _, id := range c.researcherIDs {
		if len(candidates) >= maxResults {
			break
		}
		works, err := c.fetchWorks(ctx, id, token.AccessToken)
		if err != nil {
			return nil, err
		}
		for _, work := range works {
			if len(candidates) >= maxResults {
				break
			}
			if needle != "" && !strings.Contains(strings.ToLower(work.Title), needle) {
				continue
			}
			candidates = append(candidates, models.ImportCandidate{
				Title:              work.Title,
				ExternalIdentifier: work.DOI,
				SourceTag:          c.Name(),
				RawFields: map[string]interface{}{
					"orcid": id,
				},
			})
		}
	}
	return candidates, nil
}

type orcidWork struct {
	Title string
	DOI   string
}

func (c *ORCIDConnector) fetchWorks(ctx context.Context, researcherID, accessToken string) ([]orcidWork, error) {
	endpoint := fmt.Sprintf("%s/v3.0/%s/works", c.baseURL, researcherID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orcid works lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("orcid returned status %d for %s", resp.StatusCode, researcherID)
	}

	var payload struct {
		Group []struct {
			WorkSummary []struct {
				Title struct {
					Title struct {
						Value string `json:"value"`
					} `json:"title"`
				} `json:"title"`
				ExternalIDs struct {
					ExternalID []struct {
						Type  string `json:"external-id-type"`
						Value string `json:"external-id-value"`
					} `json:"external-id"`
				} `json:"external-ids"`
			} `json:"work-summary"`
		} `json:"group"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("orcid response malformed: %w", err)
	}

	var works []orcidWork
	for _, group := range payload.Group {
		if len(group.WorkSummary) == 0 {
			continue
		}
		summary := group.WorkSummary[0]
		title := summary.Title.Title.Value
		if title == "" {
			continue
		}
		work := orcidWork{Title: title}
		for _, ext := range summary.ExternalIDs.ExternalID {
			if strings.EqualFold(ext.Type, "doi") {
				work.DOI = ext.Value
				break
			}
		}
		works = append(works, work)
	}
	return works, nil
}
