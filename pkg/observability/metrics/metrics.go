package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	normalizeRequests atomic.Int64
	matchRequests     atomic.Int64
	browseRequests    atomic.Int64
	importedItems     atomic.Int64
	connectorFailures atomic.Int64
	seededExperts     atomic.Int64
)

func IncNormalizeRequests() { normalizeRequests.Add(1) }
func IncMatchRequests()     { matchRequests.Add(1) }
func IncBrowseRequests()    { browseRequests.Add(1) }
func IncImportedItems()     { importedItems.Add(1) }
func IncConnectorFailures() { connectorFailures.Add(1) }
func IncSeededExperts()     { seededExperts.Add(1) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(w, "# HELP trialbridge_normalize_requests_total Number of condition normalization requests served.\n")
	fmt.Fprintf(w, "# TYPE trialbridge_normalize_requests_total counter\n")
	fmt.Fprintf(w, "trialbridge_normalize_requests_total %d\n", normalizeRequests.Load())

	fmt.Fprintf(w, "# HELP trialbridge_match_requests_total Number of personalized match requests served.\n")
	fmt.Fprintf(w, "# TYPE trialbridge_match_requests_total counter\n")
	fmt.Fprintf(w, "trialbridge_match_requests_total %d\n", matchRequests.Load())

	fmt.Fprintf(w, "# HELP trialbridge_browse_requests_total Number of unfiltered catalog browse requests served.\n")
	fmt.Fprintf(w, "# TYPE trialbridge_browse_requests_total counter\n")
	fmt.Fprintf(w, "trialbridge_browse_requests_total %d\n", browseRequests.Load())

	fmt.Fprintf(w, "# HELP trialbridge_imported_items_total Number of catalog rows persisted by the import pipeline.\n")
	fmt.Fprintf(w, "# TYPE trialbridge_imported_items_total counter\n")
	fmt.Fprintf(w, "trialbridge_imported_items_total %d\n", importedItems.Load())

	fmt.Fprintf(w, "# HELP trialbridge_connector_failures_total Number of import connector calls that failed.\n")
	fmt.Fprintf(w, "# TYPE trialbridge_connector_failures_total counter\n")
	fmt.Fprintf(w, "trialbridge_connector_failures_total %d\n", connectorFailures.Load())

	fmt.Fprintf(w, "# HELP trialbridge_seeded_experts_total Number of placeholder expert rows inserted on cold start.\n")
	fmt.Fprintf(w, "# TYPE trialbridge_seeded_experts_total counter\n")
	fmt.Fprintf(w, "trialbridge_seeded_experts_total %d\n", seededExperts.Load())
}
