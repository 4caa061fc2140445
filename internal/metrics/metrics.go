// Package metrics содержит метрики Prometheus сервиса StarQuest.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы пакетной операции.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// BatchOperations считает пакетные операции по таблице, статусу и исходу.
var BatchOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "starquest",
	Subsystem: "batch",
	Name:      "operations_total",
	Help:      "Batch review operations by table, target status and outcome.",
}, []string{"table", "status", "outcome"})

// BatchRows считает строки, отправленные в пакетные обновления.
var BatchRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "starquest",
	Subsystem: "batch",
	Name:      "rows_total",
	Help:      "Rows submitted to batch review updates.",
}, []string{"table", "status"})

// BatchDuration измеряет длительность обращения к хранилищу в пакетной операции.
var BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "starquest",
	Subsystem: "batch",
	Name:      "update_duration_seconds",
	Help:      "Duration of the single store round trip of a batch update.",
	Buckets:   prometheus.DefBuckets,
}, []string{"table"})

// SettlementRuns считает запуски ежемесячного расчёта процентов.
var SettlementRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "starquest",
	Subsystem: "settlement",
	Name:      "runs_total",
	Help:      "Monthly settlement RPC invocations by outcome.",
}, []string{"outcome"})
