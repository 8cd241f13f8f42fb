package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics exposes counters/histograms for the inbound pipeline.
type WebhookMetrics struct {
	inboundTotal   *prometheus.CounterVec
	gateTotal      *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	droppedTotal   prometheus.Counter
	webhookLatency *prometheus.HistogramVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oncobot",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound WhatsApp messages by kind and outcome",
		}, []string{"kind", "outcome"}),
		gateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oncobot",
			Subsystem: "webhook",
			Name:      "gate_total",
			Help:      "Messages stopped by a pipeline gate",
		}, []string{"gate"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oncobot",
			Subsystem: "webhook",
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"status"}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oncobot",
			Subsystem: "webhook",
			Name:      "dropped_total",
			Help:      "Acknowledged messages lost because the dispatch buffer was full",
		}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "oncobot",
			Subsystem: "webhook",
			Name:      "processing_latency_seconds",
			Help:      "Latency of inbound message processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.gateTotal, m.outboundTotal, m.droppedTotal, m.webhookLatency)
	return m
}

func (m *WebhookMetrics) ObserveInbound(kind, outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveGate counts a message stopped before the state machine:
// "duplicate", "opted_out", "quota_text", "quota_attachment",
// "emergency", "risky", "off_topic".
func (m *WebhookMetrics) ObserveGate(gate string) {
	if m == nil {
		return
	}
	m.gateTotal.WithLabelValues(gate).Inc()
}

func (m *WebhookMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

// ObserveDropped counts a message that was acknowledged to the
// platform but never processed because the dispatch buffer was full.
func (m *WebhookMetrics) ObserveDropped() {
	if m == nil {
		return
	}
	m.droppedTotal.Inc()
}

func (m *WebhookMetrics) ObserveProcessingLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(kind).Observe(seconds)
}
