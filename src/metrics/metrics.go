// Package metrics records chat activity on a private Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the gem collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	messages        *prometheus.CounterVec
	chunks          prometheus.Counter
	firstChunk      prometheus.Histogram
	responseLatency prometheus.Histogram
	suggestionRuns  *prometheus.CounterVec
	promptsStored   prometheus.Counter
	titles          *prometheus.CounterVec
}

// Config configures the recorder.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// New creates a recorder and registers its collectors.
func New(cfg Config) *Recorder {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := &Recorder{registry: registry}

	r.messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gem",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Messages sent, by final status",
		},
		[]string{"status"},
	)
	r.chunks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gem",
		Subsystem: "chat",
		Name:      "stream_chunks_total",
		Help:      "Streamed text chunks received",
	})
	r.firstChunk = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gem",
		Subsystem: "chat",
		Name:      "first_chunk_seconds",
		Help:      "Time from send to the first streamed chunk",
		Buckets:   cfg.LatencyBuckets,
	})
	r.responseLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gem",
		Subsystem: "chat",
		Name:      "response_seconds",
		Help:      "Time from send to the end of the response stream",
		Buckets:   cfg.LatencyBuckets,
	})
	r.suggestionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gem",
			Subsystem: "suggest",
			Name:      "runs_total",
			Help:      "Prompt suggestion runs, by outcome",
		},
		[]string{"status"},
	)
	r.promptsStored = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gem",
		Subsystem: "suggest",
		Name:      "prompts_stored_total",
		Help:      "Starter prompts stored",
	})
	r.titles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gem",
			Subsystem: "suggest",
			Name:      "titles_total",
			Help:      "Conversation title generations, by outcome",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		r.messages,
		r.chunks,
		r.firstChunk,
		r.responseLatency,
		r.suggestionRuns,
		r.promptsStored,
		r.titles,
	)

	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// MessageSent records a send that got a full response.
func (r *Recorder) MessageSent(latency time.Duration) {
	if r == nil {
		return
	}
	r.messages.WithLabelValues("sent").Inc()
	r.responseLatency.Observe(latency.Seconds())
}

// MessageFailed records a send that ended in failure.
func (r *Recorder) MessageFailed() {
	if r == nil {
		return
	}
	r.messages.WithLabelValues("failed").Inc()
}

// FirstChunk records time to the first streamed chunk.
func (r *Recorder) FirstChunk(d time.Duration) {
	if r == nil {
		return
	}
	r.firstChunk.Observe(d.Seconds())
}

// Chunk counts a streamed text chunk.
func (r *Recorder) Chunk() {
	if r == nil {
		return
	}
	r.chunks.Inc()
}

// SuggestionRun records a prompt suggestion pass and how many prompts it stored.
func (r *Recorder) SuggestionRun(stored int, err error) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	r.suggestionRuns.WithLabelValues(status).Inc()
	r.promptsStored.Add(float64(stored))
}

// Title records a title generation; status is set, skipped or failed.
func (r *Recorder) Title(status string) {
	if r == nil {
		return
	}
	r.titles.WithLabelValues(status).Inc()
}

// WriteToTextfile writes every collected metric to path in the text format.
func (r *Recorder) WriteToTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
