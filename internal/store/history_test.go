package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/subnet-miner/internal/dispatch"
	"github.com/ppiankov/subnet-miner/internal/model"
)

func tempHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func sampleResponse(resolution model.Resolution, hash string) *model.MinerResponse {
	return &model.MinerResponse{
		Statement:  "Bitcoin will reach $100,000 by end of 2024",
		Resolution: resolution,
		Confidence: 80,
		Summary:    "test",
		Sources:    []string{"coingecko"},
		ProofHash:  hash,
		Timestamp:  "2025-01-01T00:00:00.000000Z",
	}
}

func TestInsertAndGet(t *testing.T) {
	h := tempHistory(t)
	ctx := context.Background()
	st := model.Statement{ID: "stmt-1", Statement: "Bitcoin will reach $100,000 by end of 2024", EndDate: "2024-12-31T23:59:00Z"}

	id, err := h.Insert(ctx, st, sampleResponse(model.ResolutionFalse, "abc"), dispatch.OutcomeOK, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	rec, err := h.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.StatementID != "stmt-1" || rec.EndDate != st.EndDate {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Outcome != dispatch.OutcomeOK || rec.Elapsed != 1500*time.Millisecond {
		t.Errorf("expected ok/1.5s, got %s/%s", rec.Outcome, rec.Elapsed)
	}
	if rec.Response.Resolution != model.ResolutionFalse || rec.Response.ProofHash != "abc" {
		t.Errorf("unexpected response %+v", rec.Response)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestGetMissing(t *testing.T) {
	h := tempHistory(t)
	_, err := h.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByProofHash(t *testing.T) {
	h := tempHistory(t)
	ctx := context.Background()

	h.Record(ctx, model.Statement{Statement: "a"}, sampleResponse(model.ResolutionTrue, "hash-a"), dispatch.OutcomeOK, time.Second)
	h.Record(ctx, model.Statement{Statement: "b"}, sampleResponse(model.ResolutionPending, "hash-b"), dispatch.OutcomeTimeout, time.Second)

	rec, err := h.FindByProofHash(ctx, "hash-b")
	if err != nil {
		t.Fatalf("FindByProofHash: %v", err)
	}
	if rec.Statement != "b" || rec.Outcome != dispatch.OutcomeTimeout {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.StatementID != "" {
		t.Errorf("expected empty statement id, got %s", rec.StatementID)
	}

	if _, err := h.FindByProofHash(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentAndCounts(t *testing.T) {
	h := tempHistory(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	h.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	resolutions := []model.Resolution{model.ResolutionTrue, model.ResolutionFalse, model.ResolutionTrue, model.ResolutionPending}
	for i, r := range resolutions {
		st := model.Statement{Statement: string(rune('a' + i))}
		if _, err := h.Insert(ctx, st, sampleResponse(r, "h"), dispatch.OutcomeOK, 0); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	recent, err := h.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Statement != "d" || recent[1].Statement != "c" {
		t.Errorf("expected newest first, got %s, %s", recent[0].Statement, recent[1].Statement)
	}

	counts, err := h.CountByResolution(ctx)
	if err != nil {
		t.Fatalf("CountByResolution: %v", err)
	}
	if counts[model.ResolutionTrue] != 2 || counts[model.ResolutionFalse] != 1 || counts[model.ResolutionPending] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}
