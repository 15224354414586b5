package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trialbridge-health/platform/pkg/common/httpclient"
	"github.com/trialbridge-health/platform/pkg/common/models"
)

// EuropePMCConnector searches the Europe PMC literature REST API and yields
// publication candidates with the DOI as the external identifier.
type EuropePMCConnector struct {
	baseURL string
	client  *http.Client
}

func NewEuropePMCConnector(baseURL string, client *http.Client) *EuropePMCConnector {
	return &EuropePMCConnector{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (c *EuropePMCConnector) Name() string { return "europepmc" }

func (c *EuropePMCConnector) Kind() models.ContentKind { return models.KindPublication }

func (c *EuropePMCConnector) FetchCandidates(ctx context.Context, term string, maxResults int) ([]models.ImportCandidate, error) {
	query := url.Values{}
	query.Set("query", term)
	query.Set("format", "json")
	query.Set("resultType", "core")
	query.Set("pageSize", fmt.Sprintf("%d", maxResults))

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, query.Encode())

	var payload struct {
		ResultList struct {
			Result []struct {
				Title        string `json:"title"`
				AbstractText string `json:"abstractText"`
				DOI          string `json:"doi"`
				AuthorString string `json:"authorString"`
				PubYear      string `json:"pubYear"`
				JournalTitle string `json:"journalTitle"`
			} `json:"result"`
		} `json:"resultList"`
	}

	err := httpclient.Retry(ctx, 3, 200*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("europepmc search failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("europepmc returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]models.ImportCandidate, 0, len(payload.ResultList.Result))
	for _, result := range payload.ResultList.Result {
		if result.Title == "" {
			continue
		}
		raw := map[string]interface{}{}
		if authors := splitAuthors(result.AuthorString); len(authors) > 0 {
			raw["authors"] = authors
		}
		if result.PubYear != "" {
			raw["pub_year"] = result.PubYear
		}
		if result.JournalTitle != "" {
			raw["journal"] = result.JournalTitle
		}
		candidates = append(candidates, models.ImportCandidate{
			Title:                 result.Title,
			AbstractOrDescription: result.AbstractText,
			ExternalIdentifier:    result.DOI,
			SourceTag:             c.Name(),
			RawFields:             raw,
		})
	}
	return candidates, nil
}

func splitAuthors(authorString string) []string {
	if authorString == "" {
		return nil
	}
	parts := strings.Split(authorString, ",")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSuffix(strings.TrimSpace(p), ".")
		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
