// Package fund manages chit fund lifecycle and validation.
package fund

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
	"github.com/bobmcallan/chitty/internal/services/recalc"
)

// Compile-time interface check
var _ interfaces.FundService = (*Service)(nil)

// Service implements FundService
type Service struct {
	storage interfaces.StorageManager
	recalc  *recalc.Coordinator
	logger  *common.Logger
}

// NewService creates a new fund service
func NewService(storage interfaces.StorageManager, coordinator *recalc.Coordinator, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		recalc:  coordinator,
		logger:  logger,
	}
}

func generateFundID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "fund_00000000"
	}
	return "fund_" + hex.EncodeToString(b)
}

// validateFund checks the fund invariants shared by create and update.
// EarlyExitMonth is only range-checked when set, so creation (always empty)
// passes before the end month is derived.
func validateFund(fund *models.Fund) error {
	if strings.TrimSpace(fund.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(fund.Name) > 100 {
		return fmt.Errorf("name exceeds 100 characters")
	}
	if math.IsInf(fund.ChitValue, 0) || math.IsNaN(fund.ChitValue) || fund.ChitValue <= 0 {
		return fmt.Errorf("chit_value must be a positive amount")
	}
	if fund.ChitValue >= 1e15 {
		return fmt.Errorf("chit_value exceeds maximum (1e15)")
	}
	if math.IsInf(fund.MonthlyInstallment, 0) || math.IsNaN(fund.MonthlyInstallment) || fund.MonthlyInstallment <= 0 {
		return fmt.Errorf("monthly_installment must be a positive amount")
	}
	if fund.MonthlyInstallment >= 1e15 {
		return fmt.Errorf("monthly_installment exceeds maximum (1e15)")
	}
	if fund.DurationMonths < 1 {
		return fmt.Errorf("duration_months must be at least 1")
	}
	if fund.DurationMonths > 600 {
		return fmt.Errorf("duration_months exceeds maximum (600)")
	}
	if !common.ValidMonthKey(fund.StartMonth) {
		return fmt.Errorf("invalid start_month %q; must be YYYY-MM", fund.StartMonth)
	}
	if fund.EarlyExitMonth != "" {
		if !common.ValidMonthKey(fund.EarlyExitMonth) {
			return fmt.Errorf("invalid early_exit_month %q; must be YYYY-MM", fund.EarlyExitMonth)
		}
		if fund.EarlyExitMonth < fund.StartMonth || fund.EarlyExitMonth > fund.EndMonth {
			return fmt.Errorf("early_exit_month %s outside fund months [%s, %s]", fund.EarlyExitMonth, fund.StartMonth, fund.EndMonth)
		}
	}
	if len(fund.Notes) > 1000 {
		return fmt.Errorf("notes exceeds 1000 characters")
	}
	return nil
}

// CreateFund validates input, derives the end month, and persists the fund.
// New funds start active with the recalculation flag set.
func (s *Service) CreateFund(ctx context.Context, userID string, input interfaces.FundInput) (*models.Fund, error) {
	now := time.Now()
	fund := &models.Fund{
		ID:                 generateFundID(),
		UserID:             userID,
		Name:               strings.TrimSpace(input.Name),
		ChitValue:          input.ChitValue,
		MonthlyInstallment: input.MonthlyInstallment,
		DurationMonths:     input.DurationMonths,
		StartMonth:         input.StartMonth,
		Notes:              input.Notes,
		IsActive:           true,
		NeedsRecalc:        true,
		LastActivityAt:     now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := validateFund(fund); err != nil {
		return nil, fmt.Errorf("invalid fund: %w", err)
	}

	// Cannot fail once the start month has validated.
	endMonth, err := common.AddMonths(fund.StartMonth, fund.DurationMonths-1)
	if err != nil {
		return nil, fmt.Errorf("invalid fund: %w", err)
	}
	fund.EndMonth = endMonth

	if err := s.storage.FundStore().SaveFund(ctx, fund); err != nil {
		return nil, fmt.Errorf("failed to save fund: %w", err)
	}

	s.logger.Info().Str("fund_id", fund.ID).Str("name", fund.Name).
		Str("months", fund.StartMonth+".."+fund.EndMonth).
		Float64("installment", fund.MonthlyInstallment).
		Msg("Fund created")
	return fund, nil
}

// GetFund retrieves a fund, or (nil, nil) when it does not exist.
func (s *Service) GetFund(ctx context.Context, userID, fundID string) (*models.Fund, error) {
	return s.storage.FundStore().GetFund(ctx, userID, fundID)
}

// ListFunds returns all funds owned by the user, newest first.
func (s *Service) ListFunds(ctx context.Context, userID string) ([]*models.Fund, error) {
	return s.storage.FundStore().ListFunds(ctx, userID)
}

// UpdateFund applies a partial update, recomputing the end month when the
// start or duration changes, and marks the fund for recalculation.
func (s *Service) UpdateFund(ctx context.Context, userID, fundID string, update interfaces.FundUpdate) (*models.Fund, error) {
	fund, err := s.storage.FundStore().GetFund(ctx, userID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund: %w", err)
	}
	if fund == nil {
		return nil, fmt.Errorf("fund '%s' not found", fundID)
	}

	if update.Name != nil {
		fund.Name = strings.TrimSpace(*update.Name)
	}
	if update.ChitValue != nil {
		fund.ChitValue = *update.ChitValue
	}
	if update.MonthlyInstallment != nil {
		fund.MonthlyInstallment = *update.MonthlyInstallment
	}
	if update.DurationMonths != nil {
		fund.DurationMonths = *update.DurationMonths
	}
	if update.StartMonth != nil {
		fund.StartMonth = *update.StartMonth
	}
	if update.EarlyExitMonth != nil {
		fund.EarlyExitMonth = *update.EarlyExitMonth
	}
	if update.IsActive != nil {
		fund.IsActive = *update.IsActive
	}
	if update.Notes != nil {
		fund.Notes = *update.Notes
	}

	if update.StartMonth != nil || update.DurationMonths != nil {
		if !common.ValidMonthKey(fund.StartMonth) || fund.DurationMonths < 1 {
			return nil, fmt.Errorf("invalid fund: start_month and duration_months must form a valid month range")
		}
		endMonth, err := common.AddMonths(fund.StartMonth, fund.DurationMonths-1)
		if err != nil {
			return nil, fmt.Errorf("invalid fund: %w", err)
		}
		fund.EndMonth = endMonth
	}

	if err := validateFund(fund); err != nil {
		return nil, fmt.Errorf("invalid fund: %w", err)
	}

	fund.UpdatedAt = time.Now()
	if err := s.storage.FundStore().SaveFund(ctx, fund); err != nil {
		return nil, fmt.Errorf("failed to save fund: %w", err)
	}

	s.recalc.MarkDirty(ctx, userID, fundID)

	s.logger.Info().Str("fund_id", fundID).Msg("Fund updated")
	return fund, nil
}

// DeleteFund removes the fund and cascades to its entries and bids.
func (s *Service) DeleteFund(ctx context.Context, userID, fundID string) error {
	fund, err := s.storage.FundStore().GetFund(ctx, userID, fundID)
	if err != nil {
		return fmt.Errorf("failed to load fund: %w", err)
	}
	if fund == nil {
		return fmt.Errorf("fund '%s' not found", fundID)
	}

	if err := s.storage.FundStore().DeleteFund(ctx, userID, fundID); err != nil {
		return fmt.Errorf("failed to delete fund: %w", err)
	}

	s.logger.Info().Str("fund_id", fundID).Str("name", fund.Name).Msg("Fund deleted")
	return nil
}
