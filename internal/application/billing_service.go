package application

import (
	"context"
	"fmt"
	"time"

	"github.com/haulmarket/billing-service/internal/domain"
	"github.com/haulmarket/billing-service/pkg/errors"
	"github.com/haulmarket/billing-service/pkg/events"
	"github.com/haulmarket/billing-service/pkg/kafka"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/metrics"
	"github.com/haulmarket/billing-service/pkg/outbox"
)

// TransactionRunner runs a function inside one MongoDB transaction. The
// context passed to fn carries the session; repositories called with it
// participate in the same transaction.
type TransactionRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// BillingService handles the billing document lifecycle
type BillingService struct {
	billingRepo  domain.BillingRepository
	documentRepo domain.BillingDocumentRepository
	sequencer    domain.NumberSequencer
	outboxRepo   outbox.Repository
	eventFactory *events.EventFactory
	txn          TransactionRunner
	renderer     DocumentRenderer
	metrics      *metrics.Metrics
	logger       *logging.Logger

	vatRate         float64
	issuanceTimeout time.Duration
}

// NewBillingService creates a new BillingService
func NewBillingService(
	billingRepo domain.BillingRepository,
	documentRepo domain.BillingDocumentRepository,
	sequencer domain.NumberSequencer,
	outboxRepo outbox.Repository,
	eventFactory *events.EventFactory,
	txn TransactionRunner,
	renderer DocumentRenderer,
	metrics *metrics.Metrics,
	logger *logging.Logger,
	vatRate float64,
	issuanceTimeout time.Duration,
) *BillingService {
	if issuanceTimeout <= 0 {
		issuanceTimeout = 10 * time.Second
	}
	return &BillingService{
		billingRepo:     billingRepo,
		documentRepo:    documentRepo,
		sequencer:       sequencer,
		outboxRepo:      outboxRepo,
		eventFactory:    eventFactory,
		txn:             txn,
		renderer:        renderer,
		metrics:         metrics,
		logger:          logger,
		vatRate:         vatRate,
		issuanceTimeout: issuanceTimeout,
	}
}

// OpenBilling creates a DRAFT billing for a batch of shipments
func (s *BillingService) OpenBilling(ctx context.Context, cmd OpenBillingCommand) (*BillingDTO, error) {
	var cash *domain.CashDetail
	var credit *domain.CreditDetail
	if cmd.CashDetail != nil {
		cash = &domain.CashDetail{
			ReceivedAmount: cmd.CashDetail.ReceivedAmount,
			ReceivedBy:     cmd.CashDetail.ReceivedBy,
		}
	}
	if cmd.CreditDetail != nil {
		credit = &domain.CreditDetail{
			CompanyName:    cmd.CreditDetail.CompanyName,
			TaxID:          cmd.CreditDetail.TaxID,
			BillingAddress: cmd.CreditDetail.BillingAddress,
			CreditTermDays: cmd.CreditDetail.CreditTermDays,
		}
	}

	detail, err := domain.NewPaymentDetail(domain.PaymentMethod(cmd.PaymentMethod), cash, credit)
	if err != nil {
		return nil, mapDomainError(err)
	}

	billing, err := domain.OpenBilling(cmd.ShipmentIDs, detail, cmd.QuotationRef, domain.Amount{
		SubTotal: cmd.Amount.SubTotal,
		Tax:      cmd.Amount.Tax,
		Total:    cmd.Amount.Total,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.billingRepo.Save(ctx, billing); err != nil {
		s.logger.WithError(err).Error("Failed to save billing", "billingId", billing.ID)
		return nil, fmt.Errorf("failed to save billing: %w", err)
	}
	billing.ClearDomainEvents()

	s.logger.Info("Billing opened",
		"billingId", billing.ID,
		"shipments", len(cmd.ShipmentIDs),
		"paymentMethod", cmd.PaymentMethod,
	)

	return ToBillingDTO(billing), nil
}

// IssueInvoice assigns the next invoice number and transitions the billing to
// ISSUED. Number assignment, state change, artifact registration and event
// staging commit atomically; re-issuing an issued billing returns the
// existing invoice without consuming a number.
func (s *BillingService) IssueInvoice(ctx context.Context, billingID string) (*BillingDTO, error) {
	ctx, cancel := context.WithTimeout(ctx, s.issuanceTimeout)
	defer cancel()

	var billing *domain.Billing
	var document *domain.BillingDocument
	var freshlyIssued bool

	err := s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		billing, err = s.findBilling(txCtx, billingID)
		if err != nil {
			return err
		}

		if billing.Invoice != nil || billing.State == domain.BillingStateCancelled {
			// Idempotent path: no number consumed, no artifact touched.
			_, err = billing.IssueInvoice("", time.Now().UTC())
			return mapDomainErrorOrNil(err)
		}

		// The counter increments on the base context, outside the session:
		// an aborted issuance burns its number instead of rolling the
		// counter back, and concurrent issuances never contend on the
		// counter document inside the transaction.
		number, err := s.sequencer.Next(ctx, domain.DocumentTypeInvoice)
		if err != nil {
			return fmt.Errorf("failed to assign invoice number: %w", err)
		}

		invoice, err := billing.IssueInvoice(number, time.Now().UTC())
		if err != nil {
			return mapDomainError(err)
		}
		freshlyIssued = true

		if err := s.billingRepo.Update(txCtx, billing); err != nil {
			return fmt.Errorf("failed to update billing: %w", err)
		}

		document, err = s.documentRepo.Upsert(txCtx, invoice.InvoiceNumber, domain.DocumentTypeInvoice, artifactFilename(invoice.InvoiceNumber))
		if err != nil {
			return fmt.Errorf("failed to register invoice document: %w", err)
		}

		event := s.eventFactory.CreateInvoiceIssuedEvent(txCtx, billing.ID, firstShipmentID(billing), invoice.InvoiceNumber, invoice.SubTotal, invoice.IssuedAt)
		return s.stageEvents(txCtx, billing.ID, event)
	})
	if err != nil {
		return nil, s.mapIssuanceError(err, domain.DocumentTypeInvoice)
	}
	billing.ClearDomainEvents()

	if freshlyIssued {
		s.metrics.RecordInvoiceIssued()
		s.renderAsync(document)
		s.logger.Info("Invoice issued",
			"billingId", billing.ID,
			"invoiceNumber", billing.Invoice.InvoiceNumber,
			"subTotal", billing.Invoice.SubTotal,
		)
	}

	return ToBillingDTO(billing), nil
}

// RecordReceipt records a confirmed payment event against a billing
func (s *BillingService) RecordReceipt(ctx context.Context, cmd RecordReceiptCommand) (*BillingDTO, error) {
	var billing *domain.Billing
	var document *domain.BillingDocument

	err := s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		billing, err = s.findBilling(txCtx, cmd.BillingID)
		if err != nil {
			return err
		}

		// Base context: receipt numbers burn on rollback, see IssueInvoice.
		number, err := s.sequencer.Next(ctx, domain.DocumentTypeReceipt)
		if err != nil {
			return fmt.Errorf("failed to assign receipt number: %w", err)
		}

		receipt, err := billing.RecordReceipt(number, cmd.SubTotal, cmd.Tax, cmd.RefReceiptNumber, time.Now().UTC())
		if err != nil {
			return mapDomainError(err)
		}

		if err := s.billingRepo.Update(txCtx, billing); err != nil {
			return fmt.Errorf("failed to update billing: %w", err)
		}

		document, err = s.documentRepo.Upsert(txCtx, receipt.ReceiptNumber, domain.DocumentTypeReceipt, artifactFilename(receipt.ReceiptNumber))
		if err != nil {
			return fmt.Errorf("failed to register receipt document: %w", err)
		}

		event := s.eventFactory.CreateReceiptRecordedEvent(txCtx, billing.ID, receipt.ReceiptNumber, receipt.SubTotal, billing.Outstanding(), string(billing.State))
		return s.stageEvents(txCtx, billing.ID, event)
	})
	if err != nil {
		return nil, s.mapIssuanceError(err, domain.DocumentTypeReceipt)
	}
	billing.ClearDomainEvents()

	s.metrics.RecordReceiptRecorded(string(billing.State))
	s.renderAsync(document)
	s.logger.Info("Receipt recorded",
		"billingId", billing.ID,
		"state", billing.State,
		"outstanding", billing.Outstanding(),
	)

	return ToBillingDTO(billing), nil
}

// PostAdjustment posts a debit or credit adjustment note against a billing
func (s *BillingService) PostAdjustment(ctx context.Context, cmd PostAdjustmentCommand) (*BillingDTO, error) {
	items := make([]domain.AdjustmentItem, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = domain.AdjustmentItem{Description: item.Description, Amount: item.Amount}
	}

	var billing *domain.Billing
	var document *domain.BillingDocument

	err := s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		billing, err = s.findBilling(txCtx, cmd.BillingID)
		if err != nil {
			return err
		}

		// Base context: adjustment numbers burn on rollback, see IssueInvoice.
		number, err := s.sequencer.Next(ctx, domain.DocumentTypeAdjustment)
		if err != nil {
			return fmt.Errorf("failed to assign adjustment number: %w", err)
		}

		// Adjustment tax follows the billing's own tax treatment.
		taxRate := 0.0
		if billing.PaymentMethod == domain.PaymentMethodCredit {
			taxRate = s.vatRate
		}

		note, err := billing.PostAdjustment(number, cmd.NewSubTotal, taxRate, items, cmd.Remarks, time.Now().UTC())
		if err != nil {
			return mapDomainError(err)
		}

		if err := s.billingRepo.Update(txCtx, billing); err != nil {
			return fmt.Errorf("failed to update billing: %w", err)
		}

		document, err = s.documentRepo.Upsert(txCtx, note.AdjustmentNumber, domain.DocumentTypeAdjustment, artifactFilename(note.AdjustmentNumber))
		if err != nil {
			return fmt.Errorf("failed to register adjustment document: %w", err)
		}

		event := s.eventFactory.CreateBillingAdjustedEvent(txCtx, billing.ID, note.AdjustmentNumber, note.OriginalSubTotal, note.NewSubTotal)
		return s.stageEvents(txCtx, billing.ID, event)
	})
	if err != nil {
		return nil, s.mapIssuanceError(err, domain.DocumentTypeAdjustment)
	}
	billing.ClearDomainEvents()

	s.metrics.RecordAdjustmentPosted()
	s.renderAsync(document)
	s.logger.Info("Adjustment posted",
		"billingId", billing.ID,
		"outstanding", billing.Outstanding(),
	)

	return ToBillingDTO(billing), nil
}

// CancelBilling cancels a draft billing
func (s *BillingService) CancelBilling(ctx context.Context, cmd CancelBillingCommand) (*BillingDTO, error) {
	var billing *domain.Billing

	err := s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		billing, err = s.findBilling(txCtx, cmd.BillingID)
		if err != nil {
			return err
		}

		if err := billing.Cancel(cmd.Reason, time.Now().UTC()); err != nil {
			return mapDomainError(err)
		}

		if err := s.billingRepo.Update(txCtx, billing); err != nil {
			return fmt.Errorf("failed to update billing: %w", err)
		}

		event := s.eventFactory.CreateBillingCancelledEvent(txCtx, billing.ID, firstShipmentID(billing), cmd.Reason)
		return s.stageEvents(txCtx, billing.ID, event)
	})
	if err != nil {
		return nil, err
	}
	billing.ClearDomainEvents()

	s.logger.Info("Billing cancelled", "billingId", billing.ID, "reason", cmd.Reason)

	return ToBillingDTO(billing), nil
}

// GetBilling retrieves a billing by ID
func (s *BillingService) GetBilling(ctx context.Context, id string) (*BillingDTO, error) {
	billing, err := s.findBilling(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToBillingDTO(billing), nil
}

// GetBillingByShipment retrieves the billing referencing a shipment
func (s *BillingService) GetBillingByShipment(ctx context.Context, shipmentID string) (*BillingDTO, error) {
	billing, err := s.billingRepo.FindByShipmentID(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get billing: %w", err)
	}
	if billing == nil {
		return nil, errors.ErrNotFound("billing for shipment")
	}
	return ToBillingDTO(billing), nil
}

// ListBillings lists billings matching the query
func (s *BillingService) ListBillings(ctx context.Context, query ListBillingsQuery) (*BillingListResponse, error) {
	filter := domain.BillingFilter{
		ShipmentID:    query.ShipmentID,
		InvoiceNumber: query.InvoiceNumber,
		FromDate:      query.FromDate,
		ToDate:        query.ToDate,
	}
	if query.State != nil {
		state := domain.BillingState(*query.State)
		filter.State = &state
	}
	if query.PaymentMethod != nil {
		method := domain.PaymentMethod(*query.PaymentMethod)
		filter.PaymentMethod = &method
	}

	pagination := domain.Pagination{Page: query.Page, PageSize: query.PageSize}
	if pagination.Page < 1 || pagination.PageSize < 1 {
		pagination = domain.DefaultPagination()
	}

	billings, err := s.billingRepo.List(ctx, filter, pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list billings: %w", err)
	}

	total, err := s.billingRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count billings: %w", err)
	}

	dtos := make([]BillingDTO, len(billings))
	for i, b := range billings {
		dtos[i] = *ToBillingDTO(b)
	}

	return &BillingListResponse{
		Data:     dtos,
		Total:    total,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	}, nil
}

// GetDocument retrieves the artifact record for a document number
func (s *BillingService) GetDocument(ctx context.Context, ownerRef string) (*DocumentDTO, error) {
	document, err := s.documentRepo.FindByOwnerRef(ctx, ownerRef)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if document == nil {
		return nil, errors.ErrNotFoundWithID("document", ownerRef)
	}
	return ToDocumentDTO(document), nil
}

// RegenerateDocument re-renders the artifact for a document number. The
// registry record and its owning number never change; only the file is
// produced again.
func (s *BillingService) RegenerateDocument(ctx context.Context, ownerRef string) (*DocumentDTO, error) {
	existing, err := s.documentRepo.FindByOwnerRef(ctx, ownerRef)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if existing == nil {
		return nil, errors.ErrNotFoundWithID("document", ownerRef)
	}

	document, err := s.documentRepo.Upsert(ctx, ownerRef, existing.DocumentType, artifactFilename(ownerRef))
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	event := s.eventFactory.CreateDocumentRegisteredEvent(ctx, document.ID, ownerRef, string(document.DocumentType), document.Filename, true)
	if err := s.stageEvents(ctx, ownerRef, event); err != nil {
		s.logger.WithError(err).Warn("Failed to stage regeneration event", "ownerRef", ownerRef)
	}

	s.renderAsync(document)
	s.logger.Info("Document regeneration requested", "ownerRef", ownerRef, "filename", document.Filename)

	return ToDocumentDTO(document), nil
}

// MarkWHTReceived records when a signed WHT certificate came back
func (s *BillingService) MarkWHTReceived(ctx context.Context, cmd MarkWHTReceivedCommand) error {
	if err := s.documentRepo.SetWHTReceivedDate(ctx, cmd.OwnerRef, cmd.ReceivedAt); err != nil {
		return mapDomainError(err)
	}
	s.logger.Info("WHT certificate received", "ownerRef", cmd.OwnerRef, "receivedAt", cmd.ReceivedAt)
	return nil
}

func (s *BillingService) findBilling(ctx context.Context, id string) (*domain.Billing, error) {
	billing, err := s.billingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get billing: %w", err)
	}
	if billing == nil {
		return nil, errors.ErrNotFoundWithID("billing", id)
	}
	return billing, nil
}

// stageEvents writes CloudEvents to the outbox within the caller's context,
// so staging joins the surrounding transaction when there is one.
func (s *BillingService) stageEvents(ctx context.Context, aggregateID string, cloudEvents ...*events.CloudEvent) error {
	outboxEvents := make([]*outbox.OutboxEvent, 0, len(cloudEvents))
	for _, event := range cloudEvents {
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(aggregateID, "billing", kafka.Topics.BillingEvents, event)
		if err != nil {
			return fmt.Errorf("failed to stage event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}
	if err := s.outboxRepo.SaveAll(ctx, outboxEvents); err != nil {
		return fmt.Errorf("failed to stage events: %w", err)
	}
	return nil
}

// renderAsync requests artifact rendering without blocking the caller. The
// registry record already points at the filename; a render failure is logged
// and recoverable through regeneration.
func (s *BillingService) renderAsync(document *domain.BillingDocument) {
	if s.renderer == nil || document == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
		defer cancel()
		if err := s.renderer.Render(ctx, RenderRequest{
			OwnerRef:     document.OwnerRef,
			DocumentType: string(document.DocumentType),
			Filename:     document.Filename,
		}); err != nil {
			s.logger.WithError(err).Warn("Document rendering failed",
				"ownerRef", document.OwnerRef, "filename", document.Filename)
		}
	}()
}

// mapIssuanceError counts duplicate-number failures and converts them to
// their fatal AppError; every other error passes through untouched.
func (s *BillingService) mapIssuanceError(err error, documentType domain.DocumentType) error {
	if isNumberingRace(err) {
		s.metrics.RecordNumberingConflict(string(documentType))
		return mapDomainError(err)
	}
	return err
}

func mapDomainErrorOrNil(err error) error {
	if err == nil {
		return nil
	}
	return mapDomainError(err)
}

func firstShipmentID(b *domain.Billing) string {
	if len(b.ShipmentIDs) == 0 {
		return ""
	}
	return b.ShipmentIDs[0]
}

func artifactFilename(documentNumber string) string {
	return documentNumber + ".pdf"
}
