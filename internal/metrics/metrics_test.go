package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/subnet-miner/internal/dispatch"
	"github.com/ppiankov/subnet-miner/internal/model"
)

func TestRecord(t *testing.T) {
	m := New("dummy")
	resp := &model.MinerResponse{Resolution: model.ResolutionTrue, Confidence: 82}

	m.Record(context.Background(), model.Statement{}, resp, dispatch.OutcomeOK, 120*time.Millisecond)
	m.Record(context.Background(), model.Statement{}, resp, dispatch.OutcomeOK, 80*time.Millisecond)

	got := testutil.ToFloat64(m.verifications.WithLabelValues("dummy", "ok", "TRUE"))
	if got != 2 {
		t.Errorf("Expected 2 recorded responses, got %v", got)
	}
	if n := testutil.CollectAndCount(m.latency); n != 1 {
		t.Errorf("Expected 1 latency series, got %d", n)
	}
}

func TestRejected(t *testing.T) {
	m := New("ai_reasoning")
	m.Rejected("blacklisted")
	m.Rejected("rate_limited")
	m.Rejected("rate_limited")

	if got := testutil.ToFloat64(m.rejected.WithLabelValues("rate_limited")); got != 2 {
		t.Errorf("Expected 2 rate limited, got %v", got)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New("dummy")
	b := New("dummy")
	a.Rejected("blacklisted")

	if got := testutil.ToFloat64(b.rejected.WithLabelValues("blacklisted")); got != 0 {
		t.Errorf("Expected separate registries, got %v", got)
	}

	families, err := a.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "subnet_miner_requests_rejected_total" {
			found = true
		}
	}
	if !found {
		t.Error("Expected rejected counter in registry")
	}
}
