// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for the milter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "addmsgid_connections_total",
		Help: "Total number of MTA connections accepted by the milter",
	})

	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "addmsgid_messages_total",
		Help: "Messages decided at end-of-message by outcome",
	}, []string{"outcome"}) // outcome=passed|injected

	headersInjectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "addmsgid_headers_injected_total",
		Help: "Total number of Message-ID headers added to messages",
	})

	injectionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "addmsgid_injection_errors_total",
		Help: "Total number of failed add-header requests to the MTA",
	})

	abortsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "addmsgid_aborts_total",
		Help: "Total number of message transactions aborted by the MTA",
	})

	fqdnFallback = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "addmsgid_fqdn_fallback",
		Help: "Whether generated identifiers use a random token instead of a resolved FQDN (1) or a real FQDN (0)",
	})
)

// Outcome labels for messagesTotal.
const (
	OutcomePassed   = "passed"
	OutcomeInjected = "injected"
)

// IncConnections counts an accepted MTA connection.
func IncConnections() {
	connectionsTotal.Inc()
}

// IncMessage counts one end-of-message decision with the given outcome.
func IncMessage(outcome string) {
	messagesTotal.WithLabelValues(outcome).Inc()
}

// IncHeaderInjected counts one successfully queued Message-ID injection.
func IncHeaderInjected() {
	headersInjectedTotal.Inc()
}

// IncInjectionError counts a failed add-header request.
func IncInjectionError() {
	injectionErrorsTotal.Inc()
}

// IncAborts counts a transaction abort delivered by the MTA.
func IncAborts() {
	abortsTotal.Inc()
}

// SetFQDNFallback records whether the identifier generator runs without a
// resolved local FQDN.
func SetFQDNFallback(fallback bool) {
	if fallback {
		fqdnFallback.Set(1)
	} else {
		fqdnFallback.Set(0)
	}
}
