// Package metrics exposes the bot's prometheus series:
//
//	bot_cycles_total{result}  – cycles by outcome (trade|hold|error|no_balance|skipped)
//	bot_orders_total{side}    – committed orders by side
//	bot_equity_usd            – last recorded equity
//	bot_fees_usd_total        – cumulative fees paid
//	bot_target_leverage       – last smoothed target leverage
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cycles_total",
			Help: "Trading cycles by outcome",
		},
		[]string{"result"},
	)

	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Committed orders by side",
		},
		[]string{"side"},
	)

	equity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_equity_usd",
		Help: "Equity in USD",
	})

	fees = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_fees_usd_total",
		Help: "Cumulative fees paid in USD",
	})

	targetLeverage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_target_leverage",
		Help: "Last smoothed target leverage",
	})
)

func init() {
	prometheus.MustRegister(cycles, orders, equity, fees, targetLeverage)
}

func IncCycle(result string) { cycles.WithLabelValues(result).Inc() }

func IncOrder(side string) { orders.WithLabelValues(side).Inc() }

func SetEquity(v float64) { equity.Set(v) }

func AddFees(v float64) { fees.Add(v) }

func SetTargetLeverage(v float64) { targetLeverage.Set(v) }

// Handler serves the prometheus text exposition format.
func Handler() http.Handler { return promhttp.Handler() }
