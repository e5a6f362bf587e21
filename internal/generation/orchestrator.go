package generation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/logger"
)

// SourceFallback labels artifacts that came from a canned template.
const SourceFallback = "fallback"

var (
	generationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_generation_total",
			Help: "Generated artifacts by artifact kind and source (provider name or fallback)",
		},
		[]string{"artifact", "source"},
	)

	providerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedback_provider_request_duration_seconds",
			Help:    "Provider call latency in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "outcome"},
	)
)

// Feedback holds the three texts generated for one submission.
type Feedback struct {
	Acknowledgement    string
	Summary            string
	RecommendedActions string

	// Sources maps each artifact to the provider that produced it, or
	// SourceFallback.
	Sources map[Artifact]string
}

// Orchestrator runs every artifact through an ordered provider chain and
// falls back to templates, so Generate always returns text.
type Orchestrator struct {
	providers []Provider
	logger    *slog.Logger
	budget    time.Duration
}

// NewOrchestrator creates an orchestrator trying providers in order. An
// empty chain is valid and always yields the fallback templates.
func NewOrchestrator(logger *slog.Logger, providers ...Provider) *Orchestrator {
	return &Orchestrator{providers: providers, logger: logger}
}

// WithBudget caps the wall-clock time Generate spends on providers. Once the
// budget is spent, remaining artifacts use their fallback templates. Zero
// means no cap beyond the caller's context.
func (o *Orchestrator) WithBudget(d time.Duration) *Orchestrator {
	o.budget = d
	return o
}

// Providers returns the names of the configured providers in chain order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// Available reports whether any provider in the chain can currently be used.
func (o *Orchestrator) Available() bool {
	for _, p := range o.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

// Generate produces the acknowledgement, summary and recommended actions for
// s concurrently. Provider failures are logged and absorbed.
func (o *Orchestrator) Generate(ctx context.Context, s domain.Submission) Feedback {
	if o.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.budget)
		defer cancel()
	}

	results := make([]string, len(Artifacts))
	sources := make([]string, len(Artifacts))

	var g errgroup.Group
	for i, a := range Artifacts {
		g.Go(func() error {
			results[i], sources[i] = o.generate(ctx, a, s)
			return nil
		})
	}
	_ = g.Wait()

	fb := Feedback{
		Acknowledgement:    results[0],
		Summary:            results[1],
		RecommendedActions: results[2],
		Sources:            make(map[Artifact]string, len(Artifacts)),
	}
	for i, a := range Artifacts {
		fb.Sources[a] = sources[i]
	}
	return fb
}

func (o *Orchestrator) generate(ctx context.Context, a Artifact, s domain.Submission) (string, string) {
	log := logger.WithContext(ctx, o.logger).With(slog.String("artifact", string(a)))
	prompt := a.Prompt(s.Rating, s.Text)

	for _, p := range o.providers {
		if ctx.Err() != nil {
			log.WarnContext(ctx, "generation budget spent", slog.String("error", ctx.Err().Error()))
			break
		}
		if !p.Available() {
			log.DebugContext(ctx, "provider unavailable, skipping", slog.String("provider", p.Name()))
			continue
		}

		text, err := o.call(ctx, p, prompt)
		if err != nil {
			log.WarnContext(ctx, "provider failed, trying next",
				slog.String("provider", p.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}

		generationTotal.WithLabelValues(string(a), p.Name()).Inc()
		return truncate(text, a.Limit()), p.Name()
	}

	log.WarnContext(ctx, "all providers failed, using fallback text")
	generationTotal.WithLabelValues(string(a), SourceFallback).Inc()
	return a.Fallback(s.Rating, s.Text), SourceFallback
}

func (o *Orchestrator) call(ctx context.Context, p Provider, prompt string) (string, error) {
	start := time.Now()
	text, err := p.Generate(ctx, prompt)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = ErrEmptyResponse
		}
	}

	outcome := "success"
	switch {
	case errors.Is(err, ErrEmptyResponse):
		outcome = "empty"
	case err != nil:
		outcome = "error"
	}
	providerDuration.WithLabelValues(p.Name(), outcome).Observe(time.Since(start).Seconds())

	return text, err
}
