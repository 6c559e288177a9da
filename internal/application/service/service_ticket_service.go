package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/domain/pricing"
	"github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/sangkips/repairshop-api/pkg/email"
	"github.com/sangkips/repairshop-api/pkg/money"
	"github.com/sangkips/repairshop-api/pkg/pagination"
	"github.com/sangkips/repairshop-api/pkg/utils"
	"go.uber.org/zap"
)

// Part pricing modes for ticket totals.
const (
	PricingModeSnapshot = "snapshot"
	PricingModeLive     = "live"
)

// Notifier tells customers their device is ready.
type Notifier interface {
	SendServiceReady(ctx context.Context, to string, data email.ServiceReady) error
}

// ServiceTicketService runs repair tickets from intake to pickup
type ServiceTicketService struct {
	ticketRepo  repository.ServiceTicketRepository
	seqRepo     repository.ServiceSequenceRepository
	inventory   *InventoryService
	transactor  repository.Transactor
	hub         *StatusHub
	notifier    Notifier
	location    *time.Location
	pricingMode string
	log         *zap.Logger
	now         func() time.Time
}

// ServiceTicketOptions configures the ticket workflow.
type ServiceTicketOptions struct {
	Location    *time.Location
	PricingMode string
	Hub         *StatusHub
	Notifier    Notifier // optional
}

// NewServiceTicketService creates a new service ticket service
func NewServiceTicketService(
	ticketRepo repository.ServiceTicketRepository,
	seqRepo repository.ServiceSequenceRepository,
	inventory *InventoryService,
	transactor repository.Transactor,
	opts ServiceTicketOptions,
	log *zap.Logger,
) *ServiceTicketService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PricingMode != PricingModeLive {
		opts.PricingMode = PricingModeSnapshot
	}
	if opts.Hub == nil {
		opts.Hub = NewStatusHub()
	}
	return &ServiceTicketService{
		ticketRepo:  ticketRepo,
		seqRepo:     seqRepo,
		inventory:   inventory,
		transactor:  transactor,
		hub:         opts.Hub,
		notifier:    opts.Notifier,
		location:    opts.Location,
		pricingMode: opts.PricingMode,
		log:         log,
		now:         time.Now,
	}
}

// Hub exposes the status stream for subscribers.
func (s *ServiceTicketService) Hub() *StatusHub {
	return s.hub
}

// CreateTicketInput is a technician intake. Money fields are cents.
type CreateTicketInput struct {
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	DeviceModel      string
	IssueDescription string
	ServiceFee       int64
	PaymentMethod    enum.PaymentMethod
	AmountPaid       int64
	Parts            []CartLine
	// Status is AwaitingConfirmation when nil. Only InProgress is accepted besides.
	Status *enum.ServiceStatus
}

func (in *CreateTicketInput) validate() error {
	var errs []apperror.FieldError
	if strings.TrimSpace(in.CustomerName) == "" {
		errs = append(errs, apperror.FieldError{Field: "customer_name", Message: "is required"})
	}
	if strings.TrimSpace(in.DeviceModel) == "" {
		errs = append(errs, apperror.FieldError{Field: "device_model", Message: "is required"})
	}
	if in.ServiceFee < 0 {
		errs = append(errs, apperror.FieldError{Field: "service_fee", Message: "cannot be negative"})
	}
	if in.AmountPaid < 0 {
		errs = append(errs, apperror.FieldError{Field: "amount_paid", Message: "cannot be negative"})
	}
	if !in.PaymentMethod.Valid() {
		errs = append(errs, apperror.FieldError{Field: "payment_method", Message: "is invalid"})
	}
	if in.Status != nil && *in.Status != enum.ServiceStatusAwaitingConfirmation && *in.Status != enum.ServiceStatusInProgress {
		errs = append(errs, apperror.FieldError{Field: "status", Message: "must be AwaitingConfirmation or InProgress"})
	}
	for _, p := range in.Parts {
		if p.StockItemID == uuid.Nil {
			errs = append(errs, apperror.FieldError{Field: "parts.stock_item_id", Message: "is required"})
		}
		if p.Quantity <= 0 {
			errs = append(errs, apperror.FieldError{Field: "parts.quantity", Message: "must be greater than zero"})
		}
	}
	if len(errs) > 0 {
		return apperror.NewValidationError(errs)
	}
	return nil
}

// Create validates the intake, then consumes parts, allocates the service
// code and stores the ticket in one transaction.
func (s *ServiceTicketService) Create(ctx context.Context, operator entity.Operator, input *CreateTicketInput) (*entity.ServiceTicket, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	order, qty := mergeCart(input.Parts)
	items, err := s.inventory.Resolve(ctx, order)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(order, items); len(missing) > 0 {
		return nil, apperror.NewItemNotFoundError(idStrings(missing)...)
	}

	parts := make([]entity.ServicePart, 0, len(order))
	adjustments := make([]Adjustment, 0, len(order))
	for _, id := range order {
		item := items[id]
		parts = append(parts, entity.ServicePart{
			StockItemID:   id,
			Name:          item.Name,
			Quantity:      qty[id],
			UnitPrice:     item.SellPrice,
			PurchasePrice: item.PurchasePrice,
		})
		adjustments = append(adjustments, Adjustment{StockItemID: id, Delta: -qty[id]})
	}

	quote := pricing.ServiceTotal(input.ServiceFee, pricing.TicketParts(parts), pricing.SnapshotLookup(parts))
	if required := pricing.RequiredPayment(input.PaymentMethod, quote.Total); input.AmountPaid < required {
		return nil, apperror.NewInsufficientPaymentError(money.Format(required), money.Format(input.AmountPaid))
	}

	if shortages := Shortages(items, qty, order); len(shortages) > 0 {
		return nil, apperror.NewInsufficientStockError(shortages)
	}

	status := enum.ServiceStatusAwaitingConfirmation
	if input.Status != nil {
		status = *input.Status
	}
	ticket := &entity.ServiceTicket{
		CustomerName:     strings.TrimSpace(input.CustomerName),
		CustomerPhone:    strings.TrimSpace(input.CustomerPhone),
		CustomerEmail:    optionalString(input.CustomerEmail),
		DeviceModel:      strings.TrimSpace(input.DeviceModel),
		IssueDescription: strings.TrimSpace(input.IssueDescription),
		ServiceFee:       input.ServiceFee,
		Status:           status,
		PaymentMethod:    input.PaymentMethod,
		PaymentStatus:    pricing.PaymentStatusFor(input.PaymentMethod, input.AmountPaid, quote.Total),
		AmountPaid:       input.AmountPaid,
		ChangeDue:        pricing.ChangeDue(input.AmountPaid, quote.Total),
		PickupStatus:     enum.PickupStatusNotPickedUp,
		CreatedByID:      &operator.ID,
		CreatedByName:    operator.Name,
		PartsUsed:        parts,
	}

	err = runInTx(ctx, s.transactor, s.log, "service create", func(ctx context.Context) error {
		if err := s.inventory.AdjustBatch(ctx, adjustments); err != nil {
			return err
		}
		code, err := s.nextServiceCode(ctx)
		if err != nil {
			return err
		}
		ticket.ServiceCode = code
		return s.ticketRepo.Create(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("service ticket created",
		zap.String("service_code", ticket.ServiceCode),
		zap.String("total", money.Format(quote.Total)),
		zap.Int("parts", len(parts)),
		zap.String("operator", operator.Name))
	return ticket, nil
}

// SubmitRequest records a customer-initiated request awaiting a technician.
func (s *ServiceTicketService) SubmitRequest(ctx context.Context, customer entity.Operator, phone, deviceModel, issue string) (*entity.ServiceTicket, error) {
	var errs []apperror.FieldError
	if strings.TrimSpace(deviceModel) == "" {
		errs = append(errs, apperror.FieldError{Field: "device_model", Message: "is required"})
	}
	if strings.TrimSpace(issue) == "" {
		errs = append(errs, apperror.FieldError{Field: "issue_description", Message: "is required"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	ticket := &entity.ServiceTicket{
		CustomerName:     customer.Name,
		CustomerPhone:    strings.TrimSpace(phone),
		CustomerEmail:    optionalString(customer.Email),
		DeviceModel:      strings.TrimSpace(deviceModel),
		IssueDescription: strings.TrimSpace(issue),
		Status:           enum.ServiceStatusAwaitingConfirmation,
		PaymentMethod:    enum.PaymentMethodPayLater,
		PaymentStatus:    enum.PaymentStatusUnpaid,
		PickupStatus:     enum.PickupStatusNotPickedUp,
		RequestedByID:    &customer.ID,
	}

	err := runInTx(ctx, s.transactor, s.log, "service request", func(ctx context.Context) error {
		code, err := s.nextServiceCode(ctx)
		if err != nil {
			return err
		}
		ticket.ServiceCode = code
		return s.ticketRepo.Create(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("service requested", zap.String("service_code", ticket.ServiceCode), zap.String("customer_id", customer.ID.String()))
	return ticket, nil
}

func (s *ServiceTicketService) nextServiceCode(ctx context.Context) (string, error) {
	day := utils.ServiceDay(s.now(), s.location)
	seq, err := s.seqRepo.Next(ctx, day)
	if err != nil {
		return "", err
	}
	if seq > utils.MaxDailyServices {
		s.log.Warn("daily service codes exhausted", zap.String("day", day))
		return "", apperror.NewInvalidStateError(fmt.Sprintf("No service codes left for %s; the limit is %d per day", day, utils.MaxDailyServices))
	}
	return utils.ServiceCode(day, seq), nil
}

// UpdateStatus moves a ticket along the status axis.
func (s *ServiceTicketService) UpdateStatus(ctx context.Context, id uuid.UUID, next enum.ServiceStatus) (*entity.ServiceTicket, error) {
	if !next.Valid() {
		return nil, apperror.NewFieldValidationError("status", "is invalid")
	}

	ticket, err := s.getUnlocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.Status.CanTransitionTo(next) {
		return nil, apperror.NewInvalidStateError("Cannot move service " + ticket.ServiceCode + " from " + ticket.Status.String() + " to " + next.String())
	}

	updated, err := s.update(ctx, ticket, map[string]interface{}{"status": next})
	if err != nil {
		return nil, err
	}

	s.log.Info("service status changed",
		zap.String("service_code", updated.ServiceCode),
		zap.Stringer("from", ticket.Status),
		zap.Stringer("to", next))
	if next == enum.ServiceStatusCompleted {
		s.notifyReady(updated)
	}
	return updated, nil
}

// UpdatePaymentStatus is the technician override for the payment status.
func (s *ServiceTicketService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enum.PaymentStatus) (*entity.ServiceTicket, error) {
	if !status.Valid() {
		return nil, apperror.NewFieldValidationError("payment_status", "is invalid")
	}

	ticket, err := s.getUnlocked(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, ticket, map[string]interface{}{"payment_status": status})
}

// UpdatePaymentInput changes ladder inputs. Nil fields are left alone.
type UpdatePaymentInput struct {
	PaymentMethod *enum.PaymentMethod
	AmountPaid    *int64
	ServiceFee    *int64
}

// UpdatePayment changes the payment method, amount paid or service fee and
// recomputes the payment status and change. A PayLater ticket keeps a
// manually set status unless its method changed.
func (s *ServiceTicketService) UpdatePayment(ctx context.Context, id uuid.UUID, input *UpdatePaymentInput) (*entity.ServiceTicket, error) {
	var errs []apperror.FieldError
	if input.PaymentMethod != nil && !input.PaymentMethod.Valid() {
		errs = append(errs, apperror.FieldError{Field: "payment_method", Message: "is invalid"})
	}
	if input.AmountPaid != nil && *input.AmountPaid < 0 {
		errs = append(errs, apperror.FieldError{Field: "amount_paid", Message: "cannot be negative"})
	}
	if input.ServiceFee != nil && *input.ServiceFee < 0 {
		errs = append(errs, apperror.FieldError{Field: "service_fee", Message: "cannot be negative"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	ticket, err := s.getUnlocked(ctx, id)
	if err != nil {
		return nil, err
	}

	method := ticket.PaymentMethod
	if input.PaymentMethod != nil {
		method = *input.PaymentMethod
	}
	next := *ticket
	next.PaymentMethod = method
	if input.AmountPaid != nil {
		next.AmountPaid = *input.AmountPaid
	}
	if input.ServiceFee != nil {
		next.ServiceFee = *input.ServiceFee
	}

	quote, err := s.quote(ctx, &next)
	if err != nil {
		return nil, err
	}

	status := pricing.PaymentStatusFor(method, next.AmountPaid, quote.Total)
	if method == enum.PaymentMethodPayLater && method == ticket.PaymentMethod {
		status = ticket.PaymentStatus
	}

	return s.update(ctx, ticket, map[string]interface{}{
		"payment_method": method,
		"amount_paid":    next.AmountPaid,
		"service_fee":    next.ServiceFee,
		"payment_status": status,
		"change_due":     pricing.ChangeDue(next.AmountPaid, quote.Total),
	})
}

// Delete returns the ticket's parts to stock and removes it in one
// transaction. Parts whose stock item no longer exists are skipped.
func (s *ServiceTicketService) Delete(ctx context.Context, id uuid.UUID) error {
	ticket, err := s.getUnlocked(ctx, id)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(ticket.PartsUsed))
	for _, p := range ticket.PartsUsed {
		ids = append(ids, p.StockItemID)
	}
	existing, err := s.inventory.Resolve(ctx, ids)
	if err != nil {
		return err
	}

	returns := make([]Adjustment, 0, len(ticket.PartsUsed))
	for _, p := range ticket.PartsUsed {
		if _, ok := existing[p.StockItemID]; !ok {
			s.log.Warn("part not returned, stock item no longer exists",
				zap.String("service_code", ticket.ServiceCode),
				zap.String("stock_item_id", p.StockItemID.String()),
				zap.String("name", p.Name),
				zap.Int("quantity", p.Quantity))
			continue
		}
		returns = append(returns, Adjustment{StockItemID: p.StockItemID, Delta: p.Quantity})
	}

	err = runInTx(ctx, s.transactor, s.log, "service delete", func(ctx context.Context) error {
		if err := s.inventory.AdjustBatch(ctx, returns); err != nil {
			return err
		}
		ok, err := s.ticketRepo.DeleteUnlocked(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewLockedTicketError(ticket.ServiceCode)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Drop(ticket.ServiceCode)
	s.log.Info("service ticket deleted", zap.String("service_code", ticket.ServiceCode), zap.Int("parts_returned", len(returns)))
	return nil
}

// ConfirmPickup hands a completed device back and locks the ticket. An
// unpaid pickup needs acknowledgeUnpaid.
func (s *ServiceTicketService) ConfirmPickup(ctx context.Context, id uuid.UUID, operator entity.Operator, acknowledgeUnpaid bool) (*entity.ServiceTicket, error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.IsPickedUp() {
		return nil, apperror.NewAlreadyPickedUpError(ticket.ServiceCode)
	}
	if ticket.Status != enum.ServiceStatusCompleted {
		return nil, apperror.NewInvalidStateError("Service " + ticket.ServiceCode + " is " + ticket.Status.String() + "; only completed services can be picked up")
	}

	if ticket.PaymentStatus != enum.PaymentStatusPaidInFull {
		quote, err := s.quote(ctx, ticket)
		if err != nil {
			return nil, err
		}
		outstanding := money.Format(pricing.Outstanding(ticket.AmountPaid, quote.Total))
		if !acknowledgeUnpaid {
			return nil, apperror.NewUnpaidPickupError(ticket.ServiceCode, outstanding)
		}
		s.log.Warn("unpaid pickup acknowledged",
			zap.String("service_code", ticket.ServiceCode),
			zap.String("outstanding", outstanding),
			zap.String("operator", operator.Name))
	}

	ok, err := s.ticketRepo.MarkPickedUp(ctx, id, s.now().UTC(), operator)
	if err != nil {
		return nil, storageErr("service pickup", err)
	}
	if !ok {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.IsPickedUp() {
			return nil, apperror.NewAlreadyPickedUpError(current.ServiceCode)
		}
		return nil, apperror.NewInvalidStateError("Service " + current.ServiceCode + " is no longer completed")
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("service picked up", zap.String("service_code", updated.ServiceCode), zap.String("operator", operator.Name))
	s.publish(ctx, updated)
	return updated, nil
}

// Get returns a ticket with its parts
func (s *ServiceTicketService) Get(ctx context.Context, id uuid.UUID) (*entity.ServiceTicket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("service lookup", err)
	}
	if ticket == nil {
		return nil, apperror.NewNotFoundError("Service ticket")
	}
	return ticket, nil
}

// GetByCode looks a ticket up by its service code, case-insensitively
func (s *ServiceTicketService) GetByCode(ctx context.Context, code string) (*entity.ServiceTicket, error) {
	ticket, err := s.ticketRepo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, storageErr("service lookup", err)
	}
	if ticket == nil {
		return nil, apperror.NewNotFoundError("Service ticket")
	}
	return ticket, nil
}

// ServiceTicketListInput filters the ticket list
type ServiceTicketListInput = repository.ServiceTicketFilterParams

// List returns a page of tickets, newest first
func (s *ServiceTicketService) List(ctx context.Context, params *ServiceTicketListInput) (*pagination.Page[entity.ServiceTicket], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultParams()
	}
	tickets, total, err := s.ticketRepo.List(ctx, params)
	if err != nil {
		return nil, storageErr("service list", err)
	}
	return pagination.NewPage(tickets, params.Pagination, total), nil
}

// TicketQuote is a ticket's current figures.
type TicketQuote struct {
	ServiceFee      float64  `json:"service_fee"`
	PartsTotal      float64  `json:"parts_total"`
	Total           float64  `json:"total"`
	AmountPaid      float64  `json:"amount_paid"`
	Outstanding     float64  `json:"outstanding"`
	ChangeDue       float64  `json:"change_due"`
	DepositRequired float64  `json:"deposit_required"`
	RequiredPayment float64  `json:"required_payment"`
	PaymentStatus   string   `json:"payment_status"`
	SparepartMargin float64  `json:"sparepart_margin"`
	Pending         bool     `json:"pending"`
	Unresolved      []string `json:"unresolved,omitempty"`
}

func newTicketQuote(q pricing.ServiceQuote, method enum.PaymentMethod, paid, margin int64) *TicketQuote {
	return &TicketQuote{
		ServiceFee:      money.ToFloat(q.ServiceFee),
		PartsTotal:      money.ToFloat(q.PartsTotal),
		Total:           money.ToFloat(q.Total),
		AmountPaid:      money.ToFloat(paid),
		Outstanding:     money.ToFloat(pricing.Outstanding(paid, q.Total)),
		ChangeDue:       money.ToFloat(pricing.ChangeDue(paid, q.Total)),
		DepositRequired: money.ToFloat(pricing.DepositRequired(q.Total)),
		RequiredPayment: money.ToFloat(pricing.RequiredPayment(method, q.Total)),
		PaymentStatus:   pricing.PaymentStatusFor(method, paid, q.Total).String(),
		SparepartMargin: money.ToFloat(margin),
		Pending:         q.Pending(),
		Unresolved:      idStrings(q.Unresolved),
	}
}

// Quote prices an existing ticket with the configured part pricing.
func (s *ServiceTicketService) Quote(ctx context.Context, id uuid.UUID) (*TicketQuote, error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lookup, err := s.Lookup(ctx, ticket)
	if err != nil {
		return nil, err
	}
	parts := pricing.TicketParts(ticket.PartsUsed)
	q := pricing.ServiceTotal(ticket.ServiceFee, parts, lookup)
	return newTicketQuote(q, ticket.PaymentMethod, ticket.AmountPaid, pricing.SparepartMargin(parts, lookup)), nil
}

// QuoteDraftInput is an intake form being filled in. Money is cents.
type QuoteDraftInput struct {
	ServiceFee    int64
	PaymentMethod enum.PaymentMethod
	AmountPaid    int64
	Parts         []CartLine
}

// QuoteDraft prices an intake form against current stock without mutating.
// Unknown parts make the quote pending.
func (s *ServiceTicketService) QuoteDraft(ctx context.Context, input *QuoteDraftInput) (*TicketQuote, error) {
	order, qty := mergeCart(input.Parts)
	items, err := s.inventory.Resolve(ctx, order)
	if err != nil {
		return nil, err
	}

	stock := make([]entity.StockItem, 0, len(items))
	for _, it := range items {
		stock = append(stock, *it)
	}
	parts := make([]pricing.Part, 0, len(order))
	for _, id := range order {
		parts = append(parts, pricing.Part{StockItemID: id, Quantity: qty[id]})
	}

	lookup := pricing.CatalogLookup(stock)
	q := pricing.ServiceTotal(input.ServiceFee, parts, lookup)
	return newTicketQuote(q, input.PaymentMethod, input.AmountPaid, pricing.SparepartMargin(parts, lookup)), nil
}

// PublicStatus is the anonymous view of a ticket.
func (s *ServiceTicketService) PublicStatus(ctx context.Context, code string) (*entity.PublicServiceStatus, error) {
	ticket, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.publicStatus(ctx, ticket)
}

func (s *ServiceTicketService) publicStatus(ctx context.Context, ticket *entity.ServiceTicket) (*entity.PublicServiceStatus, error) {
	q, err := s.quote(ctx, ticket)
	if err != nil {
		return nil, err
	}
	return &entity.PublicServiceStatus{
		ServiceCode:   ticket.ServiceCode,
		DeviceModel:   ticket.DeviceModel,
		Status:        ticket.Status,
		PaymentStatus: ticket.PaymentStatus,
		PickupStatus:  ticket.PickupStatus,
		Total:         money.ToFloat(q.Total),
		AmountPaid:    money.ToFloat(ticket.AmountPaid),
		Pending:       q.Pending(),
		UpdatedAt:     ticket.UpdatedAt,
	}, nil
}

// Lookup returns the part price lookup for ticket under the configured mode.
func (s *ServiceTicketService) Lookup(ctx context.Context, ticket *entity.ServiceTicket) (pricing.Lookup, error) {
	if s.pricingMode != PricingModeLive {
		return pricing.SnapshotLookup(ticket.PartsUsed), nil
	}
	ids := make([]uuid.UUID, 0, len(ticket.PartsUsed))
	for _, p := range ticket.PartsUsed {
		ids = append(ids, p.StockItemID)
	}
	items, err := s.inventory.stockRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storageErr("part pricing", err)
	}
	return pricing.CatalogLookup(items), nil
}

func (s *ServiceTicketService) quote(ctx context.Context, ticket *entity.ServiceTicket) (pricing.ServiceQuote, error) {
	lookup, err := s.Lookup(ctx, ticket)
	if err != nil {
		return pricing.ServiceQuote{}, err
	}
	return pricing.ServiceTotal(ticket.ServiceFee, pricing.TicketParts(ticket.PartsUsed), lookup), nil
}

// getUnlocked loads a ticket that may still be changed.
func (s *ServiceTicketService) getUnlocked(ctx context.Context, id uuid.UUID) (*entity.ServiceTicket, error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.IsPickedUp() {
		return nil, apperror.NewLockedTicketError(ticket.ServiceCode)
	}
	return ticket, nil
}

// update writes fields only while the ticket is still unlocked, then
// publishes the new state.
func (s *ServiceTicketService) update(ctx context.Context, ticket *entity.ServiceTicket, fields map[string]interface{}) (*entity.ServiceTicket, error) {
	ok, err := s.ticketRepo.UpdateUnlocked(ctx, ticket.ID, fields)
	if err != nil {
		return nil, storageErr("service update", err)
	}
	if !ok {
		if _, err := s.Get(ctx, ticket.ID); err != nil {
			return nil, err
		}
		return nil, apperror.NewLockedTicketError(ticket.ServiceCode)
	}

	updated, err := s.Get(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, updated)
	return updated, nil
}

func (s *ServiceTicketService) publish(ctx context.Context, ticket *entity.ServiceTicket) {
	if s.hub.Subscribers(ticket.ServiceCode) == 0 {
		return
	}
	status, err := s.publicStatus(ctx, ticket)
	if err != nil {
		s.log.Warn("status not published", zap.String("service_code", ticket.ServiceCode), zap.Error(err))
		return
	}
	s.hub.Publish(*status)
}

func (s *ServiceTicketService) notifyReady(ticket *entity.ServiceTicket) {
	if s.notifier == nil || ticket.CustomerEmail == nil || *ticket.CustomerEmail == "" {
		return
	}

	q, err := s.quote(context.Background(), ticket)
	if err != nil {
		s.log.Warn("ready notification skipped", zap.String("service_code", ticket.ServiceCode), zap.Error(err))
		return
	}
	to := *ticket.CustomerEmail
	data := email.ServiceReady{
		CustomerName: ticket.CustomerName,
		ServiceCode:  ticket.ServiceCode,
		DeviceModel:  ticket.DeviceModel,
		Total:        money.Format(q.Total),
		Outstanding:  money.Format(pricing.Outstanding(ticket.AmountPaid, q.Total)),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.SendServiceReady(ctx, to, data); err != nil {
			s.log.Warn("ready notification failed", zap.String("service_code", data.ServiceCode), zap.Error(err))
			return
		}
		s.log.Info("ready notification sent", zap.String("service_code", data.ServiceCode))
	}()
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
