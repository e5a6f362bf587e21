package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
)

type fakeProvider struct {
	name      string
	available bool
	reply     func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
	calls   atomic.Int32
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) Generate(_ context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.reply(prompt)
}

func replying(name, text string) *fakeProvider {
	return &fakeProvider{name: name, available: true, reply: func(string) (string, error) { return text, nil }}
}

func failing(name string, err error) *fakeProvider {
	return &fakeProvider{name: name, available: true, reply: func(string) (string, error) { return "", err }}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counter(t *testing.T, artifact Artifact, source string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, generationTotal.WithLabelValues(string(artifact), source).Write(&m))
	return m.GetCounter().GetValue()
}

var sub = domain.Submission{Rating: 2, Text: "Cold food and a long wait."}

func TestGenerate_PrimarySucceeds(t *testing.T) {
	primary := replying("primary-ok", "  Thanks for the feedback.  ")
	secondary := replying("secondary-unused", "never")

	fb := NewOrchestrator(discardLogger(), primary, secondary).Generate(context.Background(), sub)

	assert.Equal(t, "Thanks for the feedback.", fb.Acknowledgement)
	assert.Equal(t, "Thanks for the feedback.", fb.Summary)
	assert.Equal(t, "Thanks for the feedback.", fb.RecommendedActions)
	assert.EqualValues(t, 3, primary.calls.Load())
	assert.Zero(t, secondary.calls.Load())
	for _, a := range Artifacts {
		assert.Equal(t, "primary-ok", fb.Sources[a])
	}
}

func TestGenerate_FallsThroughToSecondary(t *testing.T) {
	primary := failing("primary-quota", errors.New("429 quota exceeded"))
	secondary := replying("secondary-ok", "From the backup model.")

	before := counter(t, Summary, "secondary-ok")
	fb := NewOrchestrator(discardLogger(), primary, secondary).Generate(context.Background(), sub)

	assert.Equal(t, "From the backup model.", fb.Summary)
	assert.Equal(t, "secondary-ok", fb.Sources[Summary])
	assert.EqualValues(t, 3, primary.calls.Load())
	assert.EqualValues(t, 3, secondary.calls.Load())
	assert.Equal(t, before+1, counter(t, Summary, "secondary-ok"))
}

func TestGenerate_EmptyResponseCountsAsFailure(t *testing.T) {
	primary := replying("primary-empty", " \n\t ")
	secondary := replying("secondary-after-empty", "Real text.")

	fb := NewOrchestrator(discardLogger(), primary, secondary).Generate(context.Background(), sub)

	assert.Equal(t, "Real text.", fb.Acknowledgement)
	assert.Equal(t, "secondary-after-empty", fb.Sources[Acknowledgement])
}

func TestGenerate_UnavailableProviderSkipped(t *testing.T) {
	primary := replying("primary-open", "should not be used")
	primary.available = false
	secondary := replying("secondary-live", "Live reply.")

	o := NewOrchestrator(discardLogger(), primary, secondary)
	fb := o.Generate(context.Background(), sub)

	assert.Zero(t, primary.calls.Load())
	assert.Equal(t, "Live reply.", fb.Summary)
	assert.True(t, o.Available())
}

func TestGenerate_AllFailUsesTemplates(t *testing.T) {
	o := NewOrchestrator(discardLogger(),
		failing("p1-down", errors.New("boom")),
		failing("p2-down", errors.New("boom")),
	)

	before := counter(t, RecommendedActions, SourceFallback)
	fb := o.Generate(context.Background(), sub)

	assert.Equal(t, Acknowledgement.Fallback(sub.Rating, sub.Text), fb.Acknowledgement)
	assert.Equal(t, Summary.Fallback(sub.Rating, sub.Text), fb.Summary)
	assert.Equal(t, RecommendedActions.Fallback(sub.Rating, sub.Text), fb.RecommendedActions)
	assert.Contains(t, fb.RecommendedActions, "Follow up with customer")
	for _, a := range Artifacts {
		assert.Equal(t, SourceFallback, fb.Sources[a])
	}
	assert.Equal(t, before+1, counter(t, RecommendedActions, SourceFallback))
}

func TestGenerate_EmptyChain(t *testing.T) {
	o := NewOrchestrator(discardLogger())

	fb := o.Generate(context.Background(), domain.Submission{Rating: 5, Text: "Perfect"})

	assert.False(t, o.Available())
	assert.Empty(t, o.Providers())
	assert.Contains(t, fb.RecommendedActions, "Maintain current service standards")
	assert.True(t, strings.HasPrefix(fb.Summary, "AI Summary: 5-star review: Perfect... "))
}

func TestGenerate_TruncatesPerArtifact(t *testing.T) {
	long := strings.Repeat("ü", 1000)
	fb := NewOrchestrator(discardLogger(), replying("verbose", long)).Generate(context.Background(), sub)

	assert.Equal(t, 500, len([]rune(fb.Acknowledgement)))
	assert.Equal(t, 300, len([]rune(fb.Summary)))
	assert.Equal(t, 500, len([]rune(fb.RecommendedActions)))
}

func TestGenerate_PromptsCarryRatingAndText(t *testing.T) {
	p := replying("recorder", "ok")
	NewOrchestrator(discardLogger(), p).Generate(context.Background(), sub)

	require.Len(t, p.prompts, 3)
	var sawSummary, sawActions, sawAck bool
	for _, prompt := range p.prompts {
		assert.Contains(t, prompt, "2-star")
		assert.Contains(t, prompt, `"Cold food and a long wait."`)
		switch {
		case strings.HasSuffix(prompt, "Summary:"):
			sawSummary = true
		case strings.HasSuffix(prompt, "Recommendations:"):
			sawActions = true
		case strings.HasSuffix(prompt, "Response:"):
			sawAck = true
		}
	}
	assert.True(t, sawSummary && sawActions && sawAck)
}

func TestProviders_Order(t *testing.T) {
	o := NewOrchestrator(discardLogger(), replying("a", ""), replying("b", ""))
	assert.Equal(t, []string{"a", "b"}, o.Providers())
}

// hangingProvider blocks until its context ends, like an upstream that
// accepts the connection and never answers.
type hangingProvider struct {
	name  string
	calls atomic.Int32
}

func (h *hangingProvider) Name() string    { return h.name }
func (h *hangingProvider) Available() bool { return true }

func (h *hangingProvider) Generate(ctx context.Context, _ string) (string, error) {
	h.calls.Add(1)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerate_BudgetCapsHangingProviders(t *testing.T) {
	primary := &hangingProvider{name: "primary-hang"}
	secondary := &hangingProvider{name: "secondary-hang"}

	o := NewOrchestrator(discardLogger(), primary, secondary).WithBudget(50 * time.Millisecond)

	start := time.Now()
	fb := o.Generate(context.Background(), sub)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 2*time.Second)
	for _, a := range Artifacts {
		assert.Equal(t, SourceFallback, fb.Sources[a])
	}
	assert.Equal(t, Acknowledgement.Fallback(sub.Rating, sub.Text), fb.Acknowledgement)
	assert.EqualValues(t, 3, primary.calls.Load())
	assert.Zero(t, secondary.calls.Load(), "providers after the budget expires are not tried")
}

func TestGenerate_ZeroBudgetUsesCallerContext(t *testing.T) {
	o := NewOrchestrator(discardLogger(), replying("unbudgeted", "ok")).WithBudget(0)

	fb := o.Generate(context.Background(), sub)

	assert.Equal(t, "ok", fb.Summary)
	assert.Equal(t, "unbudgeted", fb.Sources[Summary])
}
