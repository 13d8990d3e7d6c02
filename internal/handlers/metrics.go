package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter for quiz starts
	quizStarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_starts_total",
			Help: "Total number of quiz start attempts",
		},
		[]string{"status"}, // status: success/invalid/error
	)

	// Counter for submitted quizzes
	quizSubmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Total number of scored quizzes",
		},
	)

	// Histogram for per-sentence similarity
	sentenceScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_sentence_score_percent",
			Help:    "Similarity percentage of each answered sentence",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// Histogram for overall quiz scores
	overallScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_overall_score_percent",
			Help:    "Overall percentage of each scored quiz",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// Gauge for sessions held in memory
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_sessions_current",
			Help: "Current number of quiz sessions held in memory",
		},
	)
)

// ObserveSessions records the number of live quiz sessions
func ObserveSessions(n int) {
	activeSessions.Set(float64(n))
}
