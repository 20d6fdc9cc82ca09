package bid

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
	"github.com/bobmcallan/chitty/internal/services/recalc"
)

type mockStore struct {
	interfaces.FundStore

	funds  map[string]*models.Fund
	bids   map[string]*models.Bid
	marked []string
}

func newMockStore() *mockStore {
	return &mockStore{
		funds: make(map[string]*models.Fund),
		bids:  make(map[string]*models.Bid),
	}
}

func (m *mockStore) GetFund(_ context.Context, userID, fundID string) (*models.Fund, error) {
	fund, ok := m.funds[userID+"/"+fundID]
	if !ok {
		return nil, nil
	}
	return fund, nil
}

func (m *mockStore) SaveBid(_ context.Context, bid *models.Bid) error {
	m.bids[bid.FundID+"/"+bid.MonthKey] = bid
	return nil
}

func (m *mockStore) GetBid(_ context.Context, fundID, monthKey string) (*models.Bid, error) {
	bid, ok := m.bids[fundID+"/"+monthKey]
	if !ok {
		return nil, nil
	}
	snapshot := *bid
	return &snapshot, nil
}

func (m *mockStore) ListBids(_ context.Context, fundID string) ([]*models.Bid, error) {
	var out []*models.Bid
	for _, b := range m.bids {
		if b.FundID == fundID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteBid(_ context.Context, fundID, monthKey string) error {
	delete(m.bids, fundID+"/"+monthKey)
	return nil
}

func (m *mockStore) MarkNeedsRecalc(_ context.Context, _, fundID string, _ time.Time) error {
	m.marked = append(m.marked, fundID)
	return nil
}

type mockManager struct {
	store *mockStore
}

func (m *mockManager) InternalStore() interfaces.InternalStore { return nil }
func (m *mockManager) FundStore() interfaces.FundStore         { return m.store }
func (m *mockManager) Backend() string                         { return "mock" }
func (m *mockManager) Close() error                            { return nil }

func testService() (*Service, *mockStore) {
	store := newMockStore()
	logger := common.NewLogger("error")
	manager := &mockManager{store: store}
	svc := NewService(manager, recalc.NewCoordinator(manager, logger), logger)

	store.funds["alice/fund_1"] = &models.Fund{
		ID: "fund_1", UserID: "alice", Name: "Family Chit",
		ChitValue: 100000, MonthlyInstallment: 10000,
		DurationMonths: 12, StartMonth: "2024-01", EndMonth: "2024-12",
		IsActive: true,
	}
	return svc, store
}

func TestRecordBid(t *testing.T) {
	svc, store := testService()

	bid, err := svc.RecordBid(context.Background(), "alice", "fund_1", interfaces.BidInput{
		MonthKey:   "2024-02",
		WinningBid: 88000,
		WinnerName: "  Meena  ",
	})
	if err != nil {
		t.Fatalf("RecordBid: %v", err)
	}

	if !strings.HasPrefix(bid.ID, "bid_") {
		t.Errorf("unexpected bid ID %q", bid.ID)
	}
	if bid.DiscountAmount != 12000 {
		t.Errorf("discount = %v, want 12000", bid.DiscountAmount)
	}
	if bid.WinnerName != "Meena" {
		t.Errorf("winner = %q, want trimmed name", bid.WinnerName)
	}
	if len(store.marked) != 1 || store.marked[0] != "fund_1" {
		t.Errorf("marked = %v, want [fund_1]", store.marked)
	}
}

func TestRecordBid_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   interfaces.BidInput
		wantErr string
	}{
		{"bad month key", interfaces.BidInput{MonthKey: "feb", WinningBid: 1}, "invalid month_key"},
		{"negative bid", interfaces.BidInput{MonthKey: "2024-02", WinningBid: -5}, "winning_bid must not be negative"},
		{"bid above chit value", interfaces.BidInput{MonthKey: "2024-02", WinningBid: 100001}, "exceeds chit value"},
		{"oversized winner name", interfaces.BidInput{MonthKey: "2024-02", WinningBid: 1, WinnerName: strings.Repeat("x", 101)}, "winner_name exceeds 100 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := testService()
			_, err := svc.RecordBid(context.Background(), "alice", "fund_1", tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestRecordBid_UpsertPreservesIdentity(t *testing.T) {
	svc, store := testService()

	first, err := svc.RecordBid(context.Background(), "alice", "fund_1", interfaces.BidInput{
		MonthKey:   "2024-02",
		WinningBid: 88000,
	})
	if err != nil {
		t.Fatalf("RecordBid: %v", err)
	}

	second, err := svc.RecordBid(context.Background(), "alice", "fund_1", interfaces.BidInput{
		MonthKey:   "2024-02",
		WinningBid: 90000,
	})
	if err != nil {
		t.Fatalf("RecordBid (rerecord): %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("rerecord changed bid ID %q -> %q", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("rerecord changed CreatedAt")
	}
	if second.WinningBid != 90000 || second.DiscountAmount != 10000 {
		t.Errorf("amounts not replaced: %+v", second)
	}
	if len(store.bids) != 1 {
		t.Errorf("expected one stored bid, got %d", len(store.bids))
	}
}

func TestRecordBid_FundNotFound(t *testing.T) {
	svc, _ := testService()

	_, err := svc.RecordBid(context.Background(), "bob", "fund_1", interfaces.BidInput{
		MonthKey:   "2024-02",
		WinningBid: 88000,
	})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error for another user's fund, got %v", err)
	}
}

func TestDeleteBid(t *testing.T) {
	svc, store := testService()
	if _, err := svc.RecordBid(context.Background(), "alice", "fund_1", interfaces.BidInput{
		MonthKey:   "2024-02",
		WinningBid: 88000,
	}); err != nil {
		t.Fatalf("RecordBid: %v", err)
	}

	if err := svc.DeleteBid(context.Background(), "alice", "fund_1", "2024-02"); err != nil {
		t.Fatalf("DeleteBid: %v", err)
	}
	if len(store.bids) != 0 {
		t.Error("bid not deleted")
	}

	if err := svc.DeleteBid(context.Background(), "alice", "fund_1", "2024-02"); err == nil || !strings.Contains(err.Error(), "no bid for month") {
		t.Errorf("expected no-bid error on second delete, got %v", err)
	}
}

func TestGetBid_AbsentIsNil(t *testing.T) {
	svc, _ := testService()

	bid, err := svc.GetBid(context.Background(), "alice", "fund_1", "2024-09")
	if err != nil {
		t.Fatalf("GetBid: %v", err)
	}
	if bid != nil {
		t.Errorf("expected nil for absent month, got %+v", bid)
	}
}
