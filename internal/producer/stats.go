package producer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// stats mirrors the teacher's in-process Collector but reports through
// Prometheus vectors labeled by topic, matching how a library meant to run
// inside a caller's own service should expose metrics rather than own a
// private export loop.
type stats struct {
	topic string

	messagesSent   prometheus.Counter
	messagesAcked  prometheus.Counter
	messagesFailed prometheus.Counter
	bytesSent      prometheus.Counter
	pendingGauge   prometheus.Gauge
	sendLatency    prometheus.Histogram
}

var (
	registerOnce sync.Once

	messagesSentVec   *prometheus.CounterVec
	messagesAckedVec  *prometheus.CounterVec
	messagesFailedVec *prometheus.CounterVec
	bytesSentVec      *prometheus.CounterVec
	pendingGaugeVec   *prometheus.GaugeVec
	sendLatencyVec    *prometheus.HistogramVec
)

func registerVecs() {
	registerOnce.Do(func() {
		messagesSentVec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsar_producer_messages_sent_total",
			Help: "Messages accepted by send_async, regardless of outcome.",
		}, []string{"topic"})
		messagesAckedVec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsar_producer_messages_acked_total",
			Help: "Messages acknowledged by the broker.",
		}, []string{"topic"})
		messagesFailedVec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsar_producer_messages_failed_total",
			Help: "Messages that resolved with an error.",
		}, []string{"topic"})
		bytesSentVec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsar_producer_bytes_sent_total",
			Help: "Uncompressed payload bytes accepted by send_async.",
		}, []string{"topic"})
		pendingGaugeVec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pulsar_producer_pending_queue_size",
			Help: "Send Operations currently sitting in the in-flight window.",
		}, []string{"topic"})
		sendLatencyVec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulsar_producer_send_latency_seconds",
			Help:    "Time from send_async admission to ack or failure.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})

		prometheus.MustRegister(messagesSentVec, messagesAckedVec, messagesFailedVec,
			bytesSentVec, pendingGaugeVec, sendLatencyVec)
	})
}

func newStats(topic string) *stats {
	registerVecs()
	return &stats{
		topic:          topic,
		messagesSent:   messagesSentVec.WithLabelValues(topic),
		messagesAcked:  messagesAckedVec.WithLabelValues(topic),
		messagesFailed: messagesFailedVec.WithLabelValues(topic),
		bytesSent:      bytesSentVec.WithLabelValues(topic),
		pendingGauge:   pendingGaugeVec.WithLabelValues(topic),
		sendLatency:    sendLatencyVec.WithLabelValues(topic),
	}
}

func (s *stats) recordSent(bytes int) {
	s.messagesSent.Inc()
	s.bytesSent.Add(float64(bytes))
}

func (s *stats) recordAck(latency time.Duration) {
	s.messagesAcked.Inc()
	s.sendLatency.Observe(latency.Seconds())
}

func (s *stats) recordFailure(latency time.Duration) {
	s.messagesFailed.Inc()
	s.sendLatency.Observe(latency.Seconds())
}

func (s *stats) setPending(n int) {
	s.pendingGauge.Set(float64(n))
}

// Stats is the read-only snapshot GetStats exposes to callers.
type Stats struct {
	Topic       string
	PendingSize int
}
