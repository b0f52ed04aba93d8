package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Chain transaction metrics
	// ============================================
	ChainTxTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_chain_tx_total",
			Help: "Total chain transactions by chain, method and outcome",
		},
		[]string{"chain", "method", "outcome"},
	)

	ChainTxDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_chain_tx_duration_seconds",
			Help:    "Submit-to-confirmation duration of chain transactions",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"chain", "method"},
	)

	// ============================================
	// Wallet provisioning metrics
	// ============================================
	WalletsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_wallets_created_total",
			Help: "Smart wallets created by chain and role",
		},
		[]string{"chain", "role"},
	)

	WalletCreationRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_wallet_creation_recovered_total",
		Help: "Wallet creations recovered from duplicate submissions via event lookup",
	})

	// ============================================
	// Bridge transfer metrics
	// ============================================
	TransferStages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transfer_stages_total",
			Help: "Bridge transfer stage transitions by stage and status",
		},
		[]string{"stage", "status"},
	)

	TransferDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridge_transfer_duration_seconds",
		Help:    "End-to-end burn-to-mint duration",
		Buckets: []float64{10, 30, 60, 120, 300, 600},
	})

	// ============================================
	// Attestation metrics
	// ============================================
	AttestationPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_attestation_polls_total",
			Help: "Attestation service polls by result",
		},
		[]string{"result"},
	)

	// ============================================
	// Push metrics
	// ============================================
	WSConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_ws_connections_active",
		Help: "Active websocket progress subscribers",
	})

	NATSEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_nats_events_published_total",
			Help: "Progress events published to NATS by subject",
		},
		[]string{"subject"},
	)
)
