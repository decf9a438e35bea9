package stamps

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stampsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stamps_awarded_total",
			Help: "Начислено штампов",
		},
	)

	rewardsRedeemed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stamps_rewards_total",
			Help: "Выдано наград",
		},
		[]string{"source"}, // threshold / manual
	)

	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stamps_scans_total",
			Help: "Сканы кодов по результату",
		},
		[]string{"result"},
	)
)
