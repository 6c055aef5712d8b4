package dao

import (
	"context"
	"fmt"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/friendschat/chatroom/internal/ai"
)

type recordingProvider struct {
	lastPrompt string
	reply      string
}

func (p *recordingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	p.lastPrompt = prompt
	return p.reply, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// one named in-memory db per test so unique indexes don't collide
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testService(t *testing.T) (*Service, *recordingProvider) {
	t.Helper()
	repo := NewRepo(openTestDB(t))
	prov := &recordingProvider{reply: "great week"}
	reg := ai.NewRegistry()
	reg.Register("fake", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		_ = model
		return prov, nil
	})
	return NewService(repo, reg, "fake", "default"), prov
}

func TestSeedFoundersIdempotent(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.SeedFounders(ctx); err != nil {
			t.Fatalf("seed #%d: %v", i+1, err)
		}
	}

	entries, err := svc.Ledger(ctx)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 seed entries, got %d", len(entries))
	}
}

func TestAwardAppendsEntry(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	if err := svc.SeedFounders(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	txHash, block, err := svc.Award(ctx, "Sai Prakash", 250, "Bug fixing")
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if !strings.HasPrefix(txHash, "0x") || len(txHash) != 66 {
		t.Fatalf("unexpected tx hash %q", txHash)
	}
	if block != 4 {
		t.Fatalf("expected ledger height 4, got %d", block)
	}
}

func TestAwardRejectsBadInput(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, _, err := svc.Award(ctx, "", 10, "x"); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
	if _, _, err := svc.Award(ctx, "Someone", 0, "x"); err == nil {
		t.Fatalf("expected error for non-positive amount")
	}
}

func TestCapTableAggregation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	if err := svc.SeedFounders(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := svc.Award(ctx, "Sai Prakash", 500, "Backend rewrite"); err != nil {
		t.Fatalf("award: %v", err)
	}

	rows, err := svc.CapTable(ctx)
	if err != nil {
		t.Fatalf("cap table: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 holders, got %d", len(rows))
	}
	// 1000 + 1000 + 500 total 2500
	if rows[0].Shares != 1000 || rows[1].Shares != 1000 || rows[2].Shares != 500 {
		t.Fatalf("unexpected shares: %+v", rows)
	}
	if rows[0].Percentage != 40 || rows[2].Percentage != 20 {
		t.Fatalf("unexpected percentages: %+v", rows)
	}
	if rows[2].Name != "Dana Rao" {
		t.Fatalf("expected Dana Rao last, got %q", rows[2].Name)
	}
}

func TestSummarizeBuildsPromptFromLedger(t *testing.T) {
	svc, prov := testService(t)
	ctx := context.Background()
	if err := svc.SeedFounders(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := svc.Summarize(ctx)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "great week" {
		t.Fatalf("unexpected summary %q", out)
	}
	for _, name := range []string{"Vamsi Krishna", "Sai Prakash", "Dana Rao"} {
		if !strings.Contains(prov.lastPrompt, name) {
			t.Fatalf("prompt missing %q:\n%s", name, prov.lastPrompt)
		}
	}
}

func TestRunJobRecordsOutcome(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	if err := svc.SeedFounders(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	job := &SummaryJob{ID: "01TESTSUMMARYJOB0000000000", RequestedBy: "alice", Status: JobQueued}
	if _, _, err := svc.CreateJobOrGetExisting(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := svc.RunJob(ctx, job.ID); err != nil {
		t.Fatalf("run job: %v", err)
	}

	got, err := svc.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != JobSucceeded {
		t.Fatalf("expected succeeded, got %s", got.Status)
	}
	if got.Summary == nil || *got.Summary != "great week" {
		t.Fatalf("expected stored summary, got %+v", got.Summary)
	}
}

func TestCreateJobIdempotency(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	key := "weekly-2026-08"
	first := &SummaryJob{ID: "01TESTSUMMARYJOB0000000001", RequestedBy: "alice", IdempotencyKey: &key, Status: JobQueued}
	j1, created, err := svc.CreateJobOrGetExisting(ctx, first)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}

	second := &SummaryJob{ID: "01TESTSUMMARYJOB0000000002", RequestedBy: "alice", IdempotencyKey: &key, Status: JobQueued}
	j2, created, err := svc.CreateJobOrGetExisting(ctx, second)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatalf("expected duplicate key to return existing job")
	}
	if j2.ID != j1.ID {
		t.Fatalf("expected existing job %s, got %s", j1.ID, j2.ID)
	}
}
