package store

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 操作結果のラベル値。
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

// Metrics はストア操作のPrometheusメトリクス。
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// NewMetrics はメトリクスを生成して reg に登録する。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrollment_store_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"driver", "operation", "result"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enrollment_store_operation_duration_seconds",
				Help:    "Duration of store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"driver", "operation"},
		),
	}
}

// Instrumented は任意のStoreの操作回数と所要時間を記録するデコレーター。
type Instrumented struct {
	next    Store
	driver  string
	metrics *Metrics
}

// Instrument は next をメトリクス記録付きのStoreで包む。
func Instrument(next Store, driver string, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, driver: driver, metrics: metrics}
}

// observe は1回の操作結果を記録する。
func (s *Instrumented) observe(op string, start time.Time, err error) {
	result := resultOK
	switch {
	case errors.Is(err, ErrNotFound):
		result = resultNotFound
	case err != nil:
		result = resultError
	}
	s.metrics.OperationsTotal.WithLabelValues(s.driver, op, result).Inc()
	s.metrics.OperationDuration.WithLabelValues(s.driver, op).Observe(time.Since(start).Seconds())
}

// Put はレコードを保存する。
func (s *Instrumented) Put(ctx context.Context, rec Record) error {
	start := time.Now()
	err := s.next.Put(ctx, rec)
	s.observe("put", start, err)
	return err
}

// Get はレコードを取得する。
func (s *Instrumented) Get(ctx context.Context, key Key) (Record, error) {
	start := time.Now()
	rec, err := s.next.Get(ctx, key)
	s.observe("get", start, err)
	return rec, err
}

// Delete はレコードを削除する。
func (s *Instrumented) Delete(ctx context.Context, key Key) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.observe("delete", start, err)
	return err
}

// Close は内側のStoreを閉じる。
func (s *Instrumented) Close() error {
	return s.next.Close()
}
