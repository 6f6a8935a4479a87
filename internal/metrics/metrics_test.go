package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"top100/internal/models"
)

type stubCounter struct {
	counts []models.StatusCount
	err    error
}

func (s stubCounter) CountFeatureRequestsByStatus(context.Context) ([]models.StatusCount, error) {
	return s.counts, s.err
}

func TestFeatureRequestCollector(t *testing.T) {
	c := NewFeatureRequestCollector(stubCounter{counts: []models.StatusCount{
		{Status: models.FeaturePending, Count: 3},
		{Status: models.FeaturePaid, Count: 1},
	}})

	expected := `
# HELP top100_feature_requests Current feature request count by status
# TYPE top100_feature_requests gauge
top100_feature_requests{status="cancelled"} 0
top100_feature_requests{status="contacted"} 0
top100_feature_requests{status="in_progress"} 0
top100_feature_requests{status="paid"} 1
top100_feature_requests{status="pending"} 3
top100_feature_requests{status="published"} 0
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Errorf("CollectAndCompare() error = %v", err)
	}
}

func TestFeatureRequestCollector_ErrorEmitsNothing(t *testing.T) {
	c := NewFeatureRequestCollector(stubCounter{err: errors.New("db down")})
	if n := testutil.CollectAndCount(c); n != 0 {
		t.Errorf("CollectAndCount() = %d, want 0", n)
	}
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg, stubCounter{})

	VerificationAttempts.WithLabelValues("verified").Inc()
	if got := testutil.ToFloat64(VerificationAttempts.WithLabelValues("verified")); got < 1 {
		t.Errorf("VerificationAttempts = %v, want >= 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Error("Gather() returned no metric families")
	}
}
