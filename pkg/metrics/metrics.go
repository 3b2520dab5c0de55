package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the core claim operations. The calling layer decides how
// and whether the registry is exposed.
type Metrics struct {
	ClaimsSubmitted    prometheus.Counter
	HourCapAdjustments prometheus.Counter
	Transitions        *prometheus.CounterVec
	DocumentsEncrypted prometheus.Counter
	DecryptFailures    prometheus.Counter
}

// New registers the claim counters on reg, defaulting to the global
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ClaimsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claims_submitted_total",
			Help: "Claims accepted by the store.",
		}),
		HourCapAdjustments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claim_hour_cap_adjustments_total",
			Help: "Submissions whose payable hours were reduced by the cap.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "claim_transitions_total",
			Help: "Status transitions applied, by stage and resulting status.",
		}, []string{"stage", "status"}),
		DocumentsEncrypted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "documents_encrypted_total",
			Help: "Evidence files encrypted into the vault.",
		}),
		DecryptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "document_decrypt_failures_total",
			Help: "Failed attempts to decrypt a stored document.",
		}),
	}

	reg.MustRegister(m.ClaimsSubmitted, m.HourCapAdjustments, m.Transitions, m.DocumentsEncrypted, m.DecryptFailures)
	return m
}

// Nop returns metrics registered nowhere, for tests and optional wiring.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
