package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"memorial/internal/core/apperror"
	"memorial/internal/core/entity"
	"memorial/internal/core/numerator"
	"memorial/internal/core/tx"
	"memorial/internal/core/types"
	"memorial/internal/domain"
	"memorial/internal/domain/audit"
	"memorial/pkg/logger"
)

const (
	contractPrefix = "CT"
	receiptPrefix  = "RC"
	entityContract = "contract"
)

// Service provides the contract and payment operations.
type Service struct {
	contracts ContractRepository
	payments  PaymentRepository
	catalog   CatalogConsumer
	audit     audit.Recorder
	numerator numerator.Generator
	txManager tx.Manager
	cfg       Config
	now       func() time.Time
}

// ServiceConfig wires the billing service.
type ServiceConfig struct {
	Contracts ContractRepository
	Payments  PaymentRepository
	Catalog   CatalogConsumer // Optional
	Audit     audit.Recorder  // Optional
	Numerator numerator.Generator
	TxManager tx.Manager
	Billing   Config
}

// NewService creates a new billing service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		contracts: cfg.Contracts,
		payments:  cfg.Payments,
		catalog:   cfg.Catalog,
		audit:     cfg.Audit,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		cfg:       cfg.Billing,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the billing parameters in force.
func (s *Service) Config() Config {
	return s.cfg
}

// PreviewTerms computes the schedule a new contract of source would get.
func (s *Service) PreviewTerms(amount types.Money, source Source) Terms {
	return ComputeTerms(amount, s.cfg.RateFor(source))
}

// CreateContractInput holds the fields for a new contract.
type CreateContractInput struct {
	ClientID string
	Items    []Item

	// ManualAmount replaces the sum of item prices when set.
	ManualAmount *types.Money

	// Source defaults to manual when ManualAmount is set, else catalog.
	Source Source

	Status            Status
	StartDate         *time.Time
	EndDate           *time.Time
	Comment           string
	CommissionPercent *decimal.Decimal
}

func (in CreateContractInput) validate() error {
	if in.ClientID == "" {
		return apperror.NewValidation("clientId is required").WithDetail("field", "clientId")
	}
	if len(in.Items) == 0 && in.ManualAmount == nil {
		return apperror.NewValidation("at least one item or a manual amount is required").
			WithDetail("field", "items")
	}
	if in.ManualAmount != nil && in.ManualAmount.IsNegative() {
		return apperror.NewValidation("manual amount must not be negative").
			WithDetail("field", "manualAmount")
	}
	if in.Source != "" && !in.Source.IsValid() {
		return apperror.NewValidation("invalid source").
			WithDetail("field", "source").
			WithDetail("value", string(in.Source))
	}
	if err := validateCommission(in.CommissionPercent); err != nil {
		return err
	}
	seen := make(map[string]bool, len(in.Items))
	for _, item := range in.Items {
		if err := item.validate(); err != nil {
			return err
		}
		if item.ItemID == "" {
			continue
		}
		// A catalog item is consumed once.
		if seen[item.ItemID] {
			return apperror.NewValidation("duplicate item").
				WithDetail("field", "items").
				WithDetail("value", item.ItemID)
		}
		seen[item.ItemID] = true
	}
	return nil
}

// CreateContract builds a contract from catalog items (or a manual amount),
// computes its installment schedule and stores it. Bound catalog items are
// consumed after commit; failures there are logged, not returned.
func (s *Service) CreateContract(ctx context.Context, in CreateContractInput) (*Contract, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = SourceCatalog
		if in.ManualAmount != nil {
			source = SourceManual
		}
	}

	amount := sumItems(in.Items)
	if in.ManualAmount != nil {
		amount = *in.ManualAmount
	}

	status := in.Status
	if status == "" {
		status = StatusPending
	}

	contract := &Contract{
		BaseEntity:        entity.NewBaseEntity(),
		ClientID:          in.ClientID,
		Items:             append([]Item(nil), in.Items...),
		Amount:            amount,
		InstallmentRate:   s.cfg.RateFor(source),
		CommissionPercent: in.CommissionPercent,
		Source:            source,
		Status:            status,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		Comment:           in.Comment,
	}
	if contract.Items == nil {
		contract.Items = []Item{}
	}
	contract.applyTerms(ComputeTerms(amount, contract.InstallmentRate))

	if err := contract.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(contractPrefix), s.now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		contract.Number = number

		if err := s.contracts.Create(ctx, contract); err != nil {
			return fmt.Errorf("create contract: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.consumeItems(ctx, contract.ID, in.Items)
	s.record(ctx, contract.ID, audit.ActionCreate, audit.Diff(nil, contract.auditState()))

	logger.Info(ctx, "contract created",
		"id", contract.ID,
		"number", contract.Number,
		"amount", contract.Amount.String(),
		"installments", contract.InstallmentsTotal)

	return contract, nil
}

// AddItemToContract appends item, grows the balance by its price and
// recomputes the whole schedule. InstallmentsRemaining restarts at the new
// total.
func (s *Service) AddItemToContract(ctx context.Context, contractID string, item Item) (*Contract, error) {
	if err := item.validate(); err != nil {
		return nil, err
	}

	var (
		contract *Contract
		before   map[string]any
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		contract, err = s.getContract(ctx, contractID)
		if err != nil {
			return err
		}
		before = contract.auditState()

		contract.Items = append(contract.Items, item)
		contract.Amount = contract.Amount.Add(item.Price)
		contract.applyTerms(ComputeTerms(contract.Amount, s.rateOf(contract)))
		contract.Touch()

		if err := s.contracts.Update(ctx, contract); err != nil {
			return fmt.Errorf("update contract: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.consumeItems(ctx, contract.ID, []Item{item})
	s.record(ctx, contract.ID, audit.ActionAddItem, audit.Diff(before, contract.auditState()))

	logger.Info(ctx, "item added to contract",
		"id", contract.ID,
		"item_id", item.ItemID,
		"amount", contract.Amount.String(),
		"installments", contract.InstallmentsTotal)

	return contract, nil
}

// ApplyPaymentInput holds the fields of a payment.
type ApplyPaymentInput struct {
	ContractID        string
	InstallmentCount  int
	Agent             Agent
	CommissionPercent *decimal.Decimal
}

func (in ApplyPaymentInput) validate() error {
	if in.ContractID == "" {
		return apperror.NewValidation("contractId is required").WithDetail("field", "contractId")
	}
	if in.InstallmentCount <= 0 {
		return apperror.NewValidation("installmentCount must be at least 1").
			WithDetail("field", "installmentCount").
			WithDetail("value", in.InstallmentCount)
	}
	if in.Agent.ID == "" {
		return apperror.NewValidation("agent is required").WithDetail("field", "agentId")
	}
	return validateCommission(in.CommissionPercent)
}

// ApplyPayment records installments collected by an agent and reduces the
// contract's balance by the net amount. The contract update and the payment
// insert commit together.
func (s *Service) ApplyPayment(ctx context.Context, in ApplyPaymentInput) (*Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		payment *Payment
		before  map[string]any
		after   map[string]any
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		contract, err := s.getContract(ctx, in.ContractID)
		if err != nil {
			return err
		}
		before = contract.auditState()

		b := CalculatePayment(contract, in.InstallmentCount, in.CommissionPercent, s.cfg)

		contract.Amount = b.Amount
		contract.InstallmentsRemaining = b.InstallmentsRemaining
		contract.InstallmentsTotal = b.InstallmentsTotal
		contract.Touch()
		if err := s.contracts.Update(ctx, contract); err != nil {
			return fmt.Errorf("update contract: %w", err)
		}
		after = contract.auditState()

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(receiptPrefix), s.now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		payment = &Payment{
			BaseEntity:        entity.NewBaseEntity(),
			Number:            number,
			ContractID:        contract.ID,
			AgentID:           in.Agent.ID,
			AgentName:         in.Agent.Name,
			InstallmentCount:  in.InstallmentCount,
			InstallmentAmount: b.InstallmentAmount,
			AmountPaid:        b.AmountPaid,
			CommissionPercent: b.CommissionPercent,
			CommissionAmount:  b.CommissionAmount,
			NetAmount:         b.NetAmount,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	changes := audit.Diff(before, after)
	changes["payment"] = map[string]any{"id": payment.ID, "number": payment.Number, "netAmount": payment.NetAmount.String()}
	s.record(ctx, in.ContractID, audit.ActionPayment, changes)

	logger.Info(ctx, "payment applied",
		"contract_id", in.ContractID,
		"payment_id", payment.ID,
		"number", payment.Number,
		"agent_id", payment.AgentID,
		"amount_paid", payment.AmountPaid.String(),
		"commission", payment.CommissionAmount.String())

	return payment, nil
}

// GetContract returns a contract by id.
func (s *Service) GetContract(ctx context.Context, contractID string) (*Contract, error) {
	return s.getContract(ctx, contractID)
}

// ContractFilter narrows contract listings. Empty fields match everything.
type ContractFilter struct {
	ClientID string
	Status   Status
	Limit    int
	Offset   int
}

// ListContracts returns contracts matching the filter.
func (s *Service) ListContracts(ctx context.Context, f ContractFilter) (domain.ListResult[*Contract], error) {
	filter := domain.ListFilter{Limit: f.Limit, Offset: f.Offset}.
		Where("clientId", f.ClientID).
		Where("status", string(f.Status))
	return s.contracts.List(ctx, filter)
}

// PaymentHistory returns the payments of a contract, newest first.
func (s *Service) PaymentHistory(ctx context.Context, contractID string) ([]*Payment, error) {
	if _, err := s.getContract(ctx, contractID); err != nil {
		return nil, err
	}

	payments, err := s.payments.List(ctx, PaymentFilter{ContractID: contractID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(payments, func(i, j int) bool {
		if payments[i].Timestamp.Equal(payments[j].Timestamp) {
			return payments[i].Number > payments[j].Number
		}
		return payments[i].Timestamp.After(payments[j].Timestamp)
	})
	return payments, nil
}

// SetStatus replaces the contract's status label.
func (s *Service) SetStatus(ctx context.Context, contractID string, status Status) (*Contract, error) {
	if status == "" {
		return nil, apperror.NewValidation("status is required").WithDetail("field", "status")
	}

	var (
		contract *Contract
		before   map[string]any
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		contract, err = s.getContract(ctx, contractID)
		if err != nil {
			return err
		}
		before = contract.auditState()

		contract.Status = status
		contract.Touch()
		if err := s.contracts.Update(ctx, contract); err != nil {
			return fmt.Errorf("update contract: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, contract.ID, audit.ActionStatus, audit.Diff(before, contract.auditState()))
	return contract, nil
}

func (s *Service) getContract(ctx context.Context, contractID string) (*Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityContract, contractID)
		}
		return nil, err
	}
	return contract, nil
}

// rateOf returns the rate stored on c, or the rate of its source for
// contracts created before the rate was recorded.
func (s *Service) rateOf(c *Contract) decimal.Decimal {
	if c.InstallmentRate.IsPositive() {
		return c.InstallmentRate
	}
	return s.cfg.RateFor(c.Source)
}

// consumeItems removes bound items from the catalog, best-effort.
func (s *Service) consumeItems(ctx context.Context, contractID string, items []Item) {
	if s.catalog == nil {
		return
	}
	for _, item := range items {
		if item.ItemID == "" {
			continue
		}
		if err := s.catalog.RemoveItem(ctx, item.ItemID); err != nil {
			logger.Warn(ctx, "catalog item removal failed",
				"contract_id", contractID,
				"item_id", item.ItemID,
				"error", err)
		}
	}
}

func (s *Service) record(ctx context.Context, contractID string, action audit.Action, changes map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, audit.Entry{
		EntityType: entityContract,
		EntityID:   contractID,
		Action:     action,
		Changes:    changes,
	})
}

func validateCommission(percent *decimal.Decimal) error {
	if percent == nil {
		return nil
	}
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewValidation("commissionPercent must be between 0 and 100").
			WithDetail("field", "commissionPercent").
			WithDetail("value", percent.String())
	}
	return nil
}

func sumItems(items []Item) types.Money {
	prices := make([]types.Money, len(items))
	for i, item := range items {
		prices[i] = item.Price
	}
	return types.Sum(prices...)
}
