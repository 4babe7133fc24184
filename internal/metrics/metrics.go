package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "makeupai_gate_decisions_total",
			Help: "Auth gate decisions by route class and outcome",
		},
		[]string{"class", "outcome"}, // bypassed|public|protected , forwarded|redirected|unauthorized|rate_limited
	)

	CreditDeductionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "makeupai_credit_deductions_total",
			Help: "Credit deduction attempts by result",
		},
		[]string{"result"}, // deducted|exhausted|subscribed|error
	)

	BillingEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "makeupai_billing_events_total",
			Help: "Billing webhook events by type and handling outcome",
		},
		[]string{"type", "outcome"}, // reconciled|ignored|error
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		GateDecisionsTotal,
		CreditDeductionsTotal,
		BillingEventsTotal,
	)
}
