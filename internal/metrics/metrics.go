// Package metrics exposes Prometheus counters for the capture-and-classify
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ClassificationsTotal counts inference calls by input kind and outcome.
	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voiceledger_classifications_total",
		Help: "Classification attempts by input kind and outcome.",
	}, []string{"input", "outcome"})

	// TransactionsConfirmed counts drafts committed to the ledger.
	TransactionsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voiceledger_transactions_confirmed_total",
		Help: "Drafts confirmed into ledger records.",
	})

	// TransactionsRemoved counts records deleted from the ledger.
	TransactionsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voiceledger_transactions_removed_total",
		Help: "Ledger records removed.",
	})
)

// Outcome labels for ClassificationsTotal.
const (
	OutcomeOK                = "ok"
	OutcomeMissingCredential = "missing_credential"
	OutcomeUpstreamError     = "upstream_error"
	OutcomeMalformed         = "malformed_response"
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
