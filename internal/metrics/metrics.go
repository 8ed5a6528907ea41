// Package metrics declares the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImageGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popup_image_generations_total",
		Help: "Image generation calls by provider and outcome.",
	}, []string{"provider", "outcome"})

	ImageGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "popup_image_generation_duration_seconds",
		Help:    "Wall time of one image generation call, polling included.",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 90, 120, 180},
	}, []string{"provider"})

	StoryGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popup_story_generations_total",
		Help: "LLM story generation calls by outcome.",
	}, []string{"outcome"})

	StorybooksFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popup_storybooks_finished_total",
		Help: "Storybooks that reached a terminal status.",
	}, []string{"status"})

	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "popup_storybook_jobs_active",
		Help: "Background storybook illustration jobs in flight.",
	})
)
