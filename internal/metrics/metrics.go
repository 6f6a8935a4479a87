package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"top100/internal/models"
)

var (
	featureRequestsDesc = prometheus.NewDesc(
		"top100_feature_requests",
		"Current feature request count by status",
		[]string{"status"},
		nil,
	)

	// VerificationAttempts counts verification attempts by outcome
	// (verified, not_verified, error).
	VerificationAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "top100_verification_attempts_total",
		Help: "Total email verification attempts by outcome",
	}, []string{"outcome"})

	// ProfileSaves counts self-service profile saves by outcome
	// (saved, saved_with_warning, invalid, failed).
	ProfileSaves = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "top100_profile_saves_total",
		Help: "Total self-service profile saves by outcome",
	}, []string{"outcome"})

	// Uploads counts image uploads by outcome (stored, rejected, failed, swept).
	Uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "top100_uploads_total",
		Help: "Total image uploads by outcome",
	}, []string{"outcome"})

	// FeatureRequestsCreated counts submitted feature requests.
	FeatureRequestsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "top100_feature_requests_created_total",
		Help: "Total feature requests submitted",
	})
)

// StatusCounter reads feature request counts per status.
type StatusCounter interface {
	CountFeatureRequestsByStatus(ctx context.Context) ([]models.StatusCount, error)
}

// FeatureRequestCollector is a custom Prometheus collector that reads feature
// request counts from the database on each scrape.
type FeatureRequestCollector struct {
	counter StatusCounter
}

// NewFeatureRequestCollector creates a collector backed by counter.
func NewFeatureRequestCollector(counter StatusCounter) *FeatureRequestCollector {
	return &FeatureRequestCollector{counter: counter}
}

// Describe sends the metric descriptor to the channel.
func (c *FeatureRequestCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- featureRequestsDesc
}

// Collect emits one gauge per status. Statuses with no requests report zero.
func (c *FeatureRequestCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.counter.CountFeatureRequestsByStatus(ctx)
	if err != nil {
		slog.Error("failed to collect feature request metrics", "error", err)
		return
	}

	byStatus := make(map[models.FeatureStatus]int64, len(counts))
	for _, sc := range counts {
		byStatus[sc.Status] = sc.Count
	}
	for _, status := range models.FeatureStatuses {
		ch <- prometheus.MustNewConstMetric(
			featureRequestsDesc,
			prometheus.GaugeValue,
			float64(byStatus[status]),
			string(status),
		)
	}
}

var initOnce sync.Once

// Init registers the collectors with the default registry.
// Must be called once at startup.
func Init(counter StatusCounter) {
	initOnce.Do(func() {
		Register(prometheus.DefaultRegisterer, counter)
	})
}

// Register registers every collector with reg.
func Register(reg prometheus.Registerer, counter StatusCounter) {
	reg.MustRegister(
		VerificationAttempts,
		ProfileSaves,
		Uploads,
		FeatureRequestsCreated,
		NewFeatureRequestCollector(counter),
	)
}
