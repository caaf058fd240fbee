package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stickerbot_jobs_total",
		Help: "Sticker jobs that reached a terminal state, by command, status and error kind",
	}, []string{"command", "status", "error_kind"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stickerbot_job_duration_seconds",
		Help:    "Time from job start to terminal state",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"command", "media_kind"})

	QueueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stickerbot_queue_wait_seconds",
		Help:    "Time jobs spent queued before running",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stickerbot_queue_pending",
		Help: "Jobs waiting behind the running one",
	})

	JobsShedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stickerbot_jobs_shed_total",
		Help: "Jobs rejected because the queue was full",
	})

	StickerBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stickerbot_sticker_bytes",
		Help:    "Size of delivered stickers",
		Buckets: prometheus.ExponentialBuckets(8<<10, 2, 8),
	}, []string{"media_kind"})

	InboundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stickerbot_inbound_messages_total",
		Help: "Inbound messages by platform and dispatch action",
	}, []string{"platform", "action"})
)
