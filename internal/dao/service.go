package dao

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/friendschat/chatroom/internal/ai"
	"github.com/friendschat/chatroom/internal/common"
)

type Service struct {
	repo     *Repo
	registry *ai.Registry
	provider string
	model    string
}

func NewService(repo *Repo, registry *ai.Registry, provider, model string) *Service {
	if provider == "" {
		provider = "gemini"
	}
	return &Service{repo: repo, registry: registry, provider: provider, model: model}
}

// SeedFounders inserts the initial allocations if the ledger is empty, so a
// fresh process always has something to show.
func (s *Service) SeedFounders(ctx context.Context) error {
	n, err := s.repo.CountEntries(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	seed := []Entry{
		{Recipient: "Vamsi Krishna", Amount: 1000, Reason: "Initial Founder Allocation", TxHash: "0x123...abc", Date: "2024-01-01"},
		{Recipient: "Sai Prakash", Amount: 500, Reason: "Backend Architecture", TxHash: "0x456...def", Date: "2024-01-05"},
		{Recipient: "Dana Rao", Amount: 500, Reason: "Frontend Design", TxHash: "0x789...ghi", Date: "2024-01-10"},
	}
	for i := range seed {
		if err := s.repo.InsertEntry(ctx, &seed[i]); err != nil {
			return err
		}
	}
	return nil
}

func newTxHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

// Award appends a ledger entry and returns its display tx hash plus the
// resulting ledger height.
func (s *Service) Award(ctx context.Context, to string, amount int64, reason string) (string, int64, error) {
	to = strings.TrimSpace(to)
	if to == "" || amount <= 0 {
		return "", 0, common.ErrInvalidInput
	}
	txHash, err := newTxHash()
	if err != nil {
		return "", 0, err
	}
	entry := Entry{
		Recipient: to,
		Amount:    amount,
		Reason:    reason,
		TxHash:    txHash,
		Date:      time.Now().Format("2006-01-02"),
	}
	if err := s.repo.InsertEntry(ctx, &entry); err != nil {
		return "", 0, err
	}
	block, err := s.repo.CountEntries(ctx)
	if err != nil {
		return "", 0, err
	}
	return txHash, block, nil
}

func (s *Service) Ledger(ctx context.Context) ([]Entry, error) {
	return s.repo.ListEntries(ctx)
}

// CapTable aggregates shares per recipient with their percentage of total
// supply, largest holder first.
func (s *Service) CapTable(ctx context.Context) ([]CapRow, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	shares := make(map[string]int64)
	var total int64
	order := make([]string, 0)
	for _, e := range entries {
		if _, ok := shares[e.Recipient]; !ok {
			order = append(order, e.Recipient)
		}
		shares[e.Recipient] += e.Amount
		total += e.Amount
	}

	rows := make([]CapRow, 0, len(order))
	for _, name := range order {
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(shares[name])/float64(total)*10000) / 100
		}
		rows = append(rows, CapRow{Name: name, Shares: shares[name], Percentage: pct})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Shares > rows[j].Shares })
	return rows, nil
}

// Summarize renders the ledger into a prompt and asks the configured LLM for
// the weekly write-up.
func (s *Service) Summarize(ctx context.Context) (string, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return "", err
	}
	provider, err := s.registry.Get(ctx, s.provider, s.model)
	if err != nil {
		return "", err
	}
	return provider.Generate(ctx, summaryPrompt(entries))
}

func summaryPrompt(entries []Entry) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant for a startup DAO.\n")
	b.WriteString("Here is the ledger of contributions for this week:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s received %d points for %q on %s\n", e.Recipient, e.Amount, e.Reason, e.Date)
	}
	b.WriteString("\nWrite a professional, inspiring weekly summary.\n")
	b.WriteString("Highlight the top contributor and the main categories of work, ")
	b.WriteString("and close with a short motivational note for the team.\n")
	return b.String()
}

// Job plumbing for the async summary path.

func (s *Service) CreateJobOrGetExisting(ctx context.Context, job *SummaryJob) (*SummaryJob, bool, error) {
	return s.repo.CreateJobOrGetExisting(ctx, job)
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*SummaryJob, error) {
	return s.repo.GetJobByID(ctx, jobID)
}

// RunJob executes one queued summary job and records the outcome on the row.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	_ = s.repo.UpdateJobStatusRunning(ctx, jobID)

	if _, err := s.repo.GetJobByID(ctx, jobID); err != nil {
		return err
	}

	summary, err := s.Summarize(ctx)
	if err != nil {
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}
	return s.repo.MarkJobSucceeded(ctx, jobID, summary)
}
