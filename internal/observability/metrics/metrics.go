package metrics

import "github.com/prometheus/client_golang/prometheus"

// MessagingMetrics exposes counters/histograms for messaging flows.
type MessagingMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zapagenda",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound WhatsApp webhook messages",
		}, []string{"message_type", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zapagenda",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"status", "blocked"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zapagenda",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of WhatsApp webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"message_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.webhookLatency)
	return m
}

func (m *MessagingMetrics) ObserveInbound(messageType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(messageType, status).Inc()
}

func (m *MessagingMetrics) ObserveOutbound(status string, blocked bool) {
	if m == nil {
		return
	}
	label := "false"
	if blocked {
		label = "true"
	}
	m.outboundTotal.WithLabelValues(status, label).Inc()
}

func (m *MessagingMetrics) ObserveWebhookLatency(messageType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(messageType).Observe(seconds)
}

// SweepMetrics exposes counters for the reminder sweeper and digest job.
type SweepMetrics struct {
	remindersTotal *prometheus.CounterVec
	digestTotal    *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
}

func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	m := &SweepMetrics{
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zapagenda",
			Subsystem: "reminders",
			Name:      "processed_total",
			Help:      "Reminders processed by the sweeper",
		}, []string{"outcome"}),
		digestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zapagenda",
			Subsystem: "digest",
			Name:      "clinics_total",
			Help:      "Clinics handled by the daily digest job",
		}, []string{"outcome"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "zapagenda",
			Subsystem: "reminders",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one reminder sweep",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.remindersTotal, m.digestTotal, m.sweepDuration)
	return m
}

func (m *SweepMetrics) ObserveReminder(outcome string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(outcome).Inc()
}

func (m *SweepMetrics) ObserveDigest(outcome string) {
	if m == nil {
		return
	}
	m.digestTotal.WithLabelValues(outcome).Inc()
}

func (m *SweepMetrics) ObserveSweepDuration(seconds float64) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(seconds)
}
