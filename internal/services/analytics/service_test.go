package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
	"github.com/bobmcallan/chitty/internal/services/recalc"
)

// --- Mock fund store ---

type mockFundStore struct {
	funds   map[string]*models.Fund
	entries map[string][]*models.MonthlyEntry

	// afterListEntries simulates a concurrent writer landing between the
	// analytics read and its flag clear.
	afterListEntries func()
}

func newMockFundStore() *mockFundStore {
	return &mockFundStore{
		funds:   make(map[string]*models.Fund),
		entries: make(map[string][]*models.MonthlyEntry),
	}
}

func (m *mockFundStore) fundKey(userID, fundID string) string {
	return userID + "/" + fundID
}

func (m *mockFundStore) SaveFund(_ context.Context, fund *models.Fund) error {
	m.funds[m.fundKey(fund.UserID, fund.ID)] = fund
	return nil
}

func (m *mockFundStore) GetFund(_ context.Context, userID, fundID string) (*models.Fund, error) {
	fund, ok := m.funds[m.fundKey(userID, fundID)]
	if !ok {
		return nil, nil
	}
	snapshot := *fund
	return &snapshot, nil
}

func (m *mockFundStore) ListFunds(_ context.Context, userID string) ([]*models.Fund, error) {
	var out []*models.Fund
	for _, f := range m.funds {
		if f.UserID == userID {
			snapshot := *f
			out = append(out, &snapshot)
		}
	}
	return out, nil
}

func (m *mockFundStore) DeleteFund(_ context.Context, userID, fundID string) error {
	delete(m.funds, m.fundKey(userID, fundID))
	delete(m.entries, fundID)
	return nil
}

func (m *mockFundStore) SaveEntry(_ context.Context, entry *models.MonthlyEntry) error {
	m.entries[entry.FundID] = append(m.entries[entry.FundID], entry)
	return nil
}

func (m *mockFundStore) GetEntry(_ context.Context, fundID, monthKey string) (*models.MonthlyEntry, error) {
	for _, e := range m.entries[fundID] {
		if e.MonthKey == monthKey {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockFundStore) ListEntries(_ context.Context, fundID string) ([]*models.MonthlyEntry, error) {
	entries := m.entries[fundID]
	if m.afterListEntries != nil {
		m.afterListEntries()
	}
	return entries, nil
}

func (m *mockFundStore) DeleteEntry(_ context.Context, fundID, monthKey string) error { return nil }

func (m *mockFundStore) SaveBid(_ context.Context, _ *models.Bid) error { return nil }
func (m *mockFundStore) GetBid(_ context.Context, _, _ string) (*models.Bid, error) {
	return nil, nil
}
func (m *mockFundStore) ListBids(_ context.Context, _ string) ([]*models.Bid, error) {
	return nil, nil
}
func (m *mockFundStore) DeleteBid(_ context.Context, _, _ string) error { return nil }

func (m *mockFundStore) MarkNeedsRecalc(_ context.Context, userID, fundID string, at time.Time) error {
	fund, ok := m.funds[m.fundKey(userID, fundID)]
	if !ok {
		return nil
	}
	fund.NeedsRecalc = true
	if at.After(fund.LastActivityAt) {
		fund.LastActivityAt = at
	}
	return nil
}

func (m *mockFundStore) ClearNeedsRecalc(_ context.Context, userID, fundID string, observed time.Time) (bool, error) {
	fund, ok := m.funds[m.fundKey(userID, fundID)]
	if !ok || !fund.NeedsRecalc || fund.LastActivityAt.After(observed) {
		return false, nil
	}
	fund.NeedsRecalc = false
	return true, nil
}

func (m *mockFundStore) Close() error { return nil }

// --- Mock storage manager ---

type mockStorageManager struct {
	fundStore *mockFundStore
}

func newMockStorageManager() *mockStorageManager {
	return &mockStorageManager{fundStore: newMockFundStore()}
}

func (m *mockStorageManager) InternalStore() interfaces.InternalStore { return nil }
func (m *mockStorageManager) FundStore() interfaces.FundStore         { return m.fundStore }
func (m *mockStorageManager) Backend() string                         { return "mock" }
func (m *mockStorageManager) Close() error                            { return nil }

// --- Test helpers ---

func testService() (*Service, *mockFundStore) {
	storage := newMockStorageManager()
	logger := common.NewLogger("error")
	coordinator := recalc.NewCoordinator(storage, logger)
	return NewService(storage, coordinator, logger), storage.fundStore
}

func seedFund(store *mockFundStore, fund *models.Fund, entries ...*models.MonthlyEntry) {
	store.funds[store.fundKey(fund.UserID, fund.ID)] = fund
	for _, e := range entries {
		store.entries[fund.ID] = append(store.entries[fund.ID], e)
	}
}

// --- Tests ---

func TestGetCashFlowSeries_MissingFund(t *testing.T) {
	svc, _ := testService()

	points, err := svc.GetCashFlowSeries(context.Background(), "alice", "fund_nope")
	if err != nil {
		t.Fatalf("GetCashFlowSeries: %v", err)
	}
	if points == nil || len(points) != 0 {
		t.Errorf("expected empty series for missing fund, got %v", points)
	}
}

func TestGetCashFlowSeries(t *testing.T) {
	svc, store := testService()
	fund := threeMonthFund()
	seedFund(store, fund, &models.MonthlyEntry{FundID: fund.ID, MonthKey: "2024-02", DividendAmount: 800})

	points, err := svc.GetCashFlowSeries(context.Background(), "alice", fund.ID)
	if err != nil {
		t.Fatalf("GetCashFlowSeries: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if !almostEqual(points[1].Amount, -9200) {
		t.Errorf("points[1].Amount = %v, want -9200", points[1].Amount)
	}
}

func TestGetNetCashFlowSeries(t *testing.T) {
	svc, store := testService()
	fund := threeMonthFund()
	seedFund(store, fund,
		&models.MonthlyEntry{FundID: fund.ID, MonthKey: "2024-02", DividendAmount: 800},
		&models.MonthlyEntry{FundID: fund.ID, MonthKey: "broken", DividendAmount: 100},
	)

	result, err := svc.GetNetCashFlowSeries(context.Background(), "alice", fund.ID)
	if err != nil {
		t.Fatalf("GetNetCashFlowSeries: %v", err)
	}
	if len(result.Points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(result.Points))
	}
	if result.SkippedMonths != 1 {
		t.Errorf("skipped = %d, want 1", result.SkippedMonths)
	}
}

func TestGetFundAnalytics_MissingFund(t *testing.T) {
	svc, _ := testService()

	analytics, err := svc.GetFundAnalytics(context.Background(), "alice", "fund_nope", interfaces.AnalyticsOptions{})
	if err != nil {
		t.Fatalf("GetFundAnalytics: %v", err)
	}
	if analytics != nil {
		t.Errorf("expected nil analytics for missing fund, got %+v", analytics)
	}
}

func TestGetFundAnalytics(t *testing.T) {
	svc, store := testService()
	fund := threeMonthFund()
	fund.NeedsRecalc = true
	fund.LastActivityAt = time.Now().Add(-time.Minute)
	seedFund(store, fund,
		&models.MonthlyEntry{FundID: fund.ID, MonthKey: "2024-02", DividendAmount: 800},
		&models.MonthlyEntry{FundID: fund.ID, MonthKey: "2024-03", DividendAmount: 800, PrizeAmount: 40000},
	)

	analytics, err := svc.GetFundAnalytics(context.Background(), "alice", fund.ID, interfaces.AnalyticsOptions{MonthsAhead: 2})
	if err != nil {
		t.Fatalf("GetFundAnalytics: %v", err)
	}
	if analytics == nil {
		t.Fatal("expected analytics, got nil")
	}

	// -10000, -9200, +30800
	if !almostEqual(analytics.TotalProfit, 11600) {
		t.Errorf("profit = %v, want 11600", analytics.TotalProfit)
	}
	if analytics.XIRR == nil {
		t.Error("expected a rate for a mixed-sign series")
	}
	if analytics.CashFlowCount != 3 {
		t.Errorf("cash flow count = %d, want 3", analytics.CashFlowCount)
	}
	if analytics.LastRecordedMonth != "2024-03" {
		t.Errorf("last recorded = %q, want 2024-03", analytics.LastRecordedMonth)
	}
	if analytics.Projection == nil || len(analytics.Projection.Points) != 2 {
		t.Fatalf("expected 2 projected points, got %+v", analytics.Projection)
	}
	if analytics.Projection.Points[0].MonthKey != "2024-04" {
		t.Errorf("projection starts at %q, want 2024-04", analytics.Projection.Points[0].MonthKey)
	}

	// A successful read clears the flag.
	stored := store.funds[store.fundKey("alice", fund.ID)]
	if stored.NeedsRecalc {
		t.Error("recalculation flag not cleared after analytics read")
	}
}

func TestGetFundAnalytics_ConcurrentMarkSurvives(t *testing.T) {
	svc, store := testService()
	fund := threeMonthFund()
	fund.NeedsRecalc = true
	fund.LastActivityAt = time.Now().Add(-time.Minute)
	seedFund(store, fund, &models.MonthlyEntry{FundID: fund.ID, MonthKey: "2024-02", DividendAmount: 800})

	// A writer marks the fund after the read but before the clear.
	store.afterListEntries = func() {
		store.MarkNeedsRecalc(context.Background(), "alice", fund.ID, time.Now().Add(time.Minute))
	}

	if _, err := svc.GetFundAnalytics(context.Background(), "alice", fund.ID, interfaces.AnalyticsOptions{}); err != nil {
		t.Fatalf("GetFundAnalytics: %v", err)
	}

	stored := store.funds[store.fundKey("alice", fund.ID)]
	if !stored.NeedsRecalc {
		t.Error("stale clear erased a concurrent mark")
	}
}

func TestGetFundAnalytics_BadMonthConfig(t *testing.T) {
	svc, store := testService()
	fund := threeMonthFund()
	fund.StartMonth = "garbage"
	seedFund(store, fund)

	analytics, err := svc.GetFundAnalytics(context.Background(), "alice", fund.ID, interfaces.AnalyticsOptions{})
	if err != nil {
		t.Fatalf("GetFundAnalytics: %v", err)
	}
	if analytics == nil {
		t.Fatal("expected analytics, got nil")
	}
	if analytics.CashFlowCount != 0 {
		t.Errorf("expected empty series for bad month config, got %d points", analytics.CashFlowCount)
	}
	if analytics.XIRR != nil {
		t.Error("expected nil rate for empty series")
	}
}

func TestGetProjection_MissingFund(t *testing.T) {
	svc, _ := testService()

	result, err := svc.GetProjection(context.Background(), "alice", "fund_nope", 3)
	if err != nil {
		t.Fatalf("GetProjection: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil projection for missing fund, got %+v", result)
	}
}

func TestGetDashboard(t *testing.T) {
	svc, store := testService()

	// Fund A: eleven months of -1000, then -1000 + 17000 = +16000. Profit +5000.
	fundA := &models.Fund{
		ID: "fund_a", UserID: "alice", Name: "Fund A",
		MonthlyInstallment: 1000, StartMonth: "2024-01", EndMonth: "2024-12",
		IsActive: true, NeedsRecalc: true, LastActivityAt: time.Now().Add(-time.Hour),
	}
	seedFund(store, fundA, &models.MonthlyEntry{FundID: "fund_a", MonthKey: "2024-12", PrizeAmount: 17000})

	// Fund B: eleven months of -1000, then -1000 + 10000 = +9000. Profit -2000.
	fundB := &models.Fund{
		ID: "fund_b", UserID: "alice", Name: "Fund B",
		MonthlyInstallment: 1000, StartMonth: "2024-01", EndMonth: "2024-12",
		IsActive: true, NeedsRecalc: true, LastActivityAt: time.Now().Add(-time.Hour),
	}
	seedFund(store, fundB, &models.MonthlyEntry{FundID: "fund_b", MonthKey: "2024-12", PrizeAmount: 10000})

	// Inactive fund must not be aggregated.
	fundC := &models.Fund{
		ID: "fund_c", UserID: "alice", Name: "Fund C",
		MonthlyInstallment: 1000, StartMonth: "2024-01", EndMonth: "2024-06",
		IsActive: false,
	}
	seedFund(store, fundC)

	// Another user's fund must not leak in.
	fundD := &models.Fund{
		ID: "fund_d", UserID: "bob", Name: "Fund D",
		MonthlyInstallment: 1000, StartMonth: "2024-01", EndMonth: "2024-06",
		IsActive: true,
	}
	seedFund(store, fundD)

	summary, err := svc.GetDashboard(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}

	if summary.FundCount != 2 {
		t.Fatalf("fund count = %d, want 2", summary.FundCount)
	}
	if !almostEqual(summary.TotalProfit, 3000) {
		t.Errorf("total profit = %v, want 3000", summary.TotalProfit)
	}

	profits := map[string]float64{}
	for _, f := range summary.Funds {
		profits[f.FundID] = f.TotalProfit
		if f.XIRR == nil {
			t.Errorf("fund %s: expected an independently computed rate", f.FundID)
		}
		if f.CashFlowCount == 0 {
			t.Errorf("fund %s: expected cash flow points", f.FundID)
		}
	}
	if !almostEqual(profits["fund_a"], 5000) {
		t.Errorf("fund_a profit = %v, want 5000", profits["fund_a"])
	}
	if !almostEqual(profits["fund_b"], -2000) {
		t.Errorf("fund_b profit = %v, want -2000", profits["fund_b"])
	}

	// Dashboard is the primary clearing point.
	for _, id := range []string{"fund_a", "fund_b"} {
		if store.funds[store.fundKey("alice", id)].NeedsRecalc {
			t.Errorf("fund %s still marked after dashboard read", id)
		}
	}
}

func TestGetDashboard_SkipsZeroPointFunds(t *testing.T) {
	svc, store := testService()

	// Inverted month range produces no points at all.
	empty := &models.Fund{
		ID: "fund_empty", UserID: "alice", Name: "Empty",
		MonthlyInstallment: 1000, StartMonth: "2024-06", EndMonth: "2024-01",
		IsActive: true,
	}
	seedFund(store, empty)

	summary, err := svc.GetDashboard(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if summary.FundCount != 0 || len(summary.Funds) != 0 {
		t.Errorf("expected empty dashboard, got %+v", summary)
	}
	if summary.TotalProfit != 0 {
		t.Errorf("total profit = %v, want 0", summary.TotalProfit)
	}
}

func TestGetDashboard_NoFunds(t *testing.T) {
	svc, _ := testService()

	summary, err := svc.GetDashboard(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if summary.FundCount != 0 || summary.TotalProfit != 0 {
		t.Errorf("expected zeroed summary, got %+v", summary)
	}
	if summary.Funds == nil {
		t.Error("funds list should be empty, not nil")
	}
}
