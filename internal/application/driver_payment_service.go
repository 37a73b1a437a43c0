package application

import (
	"context"
	"fmt"

	"github.com/haulmarket/billing-service/internal/domain"
	"github.com/haulmarket/billing-service/pkg/errors"
	"github.com/haulmarket/billing-service/pkg/events"
	"github.com/haulmarket/billing-service/pkg/kafka"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/metrics"
	"github.com/haulmarket/billing-service/pkg/outbox"
)

// DriverPaymentService handles driver payout use cases
type DriverPaymentService struct {
	paymentRepo  domain.DriverPaymentRepository
	shipmentRepo domain.ShipmentRepository
	documentRepo domain.BillingDocumentRepository
	sequencer    domain.NumberSequencer
	outboxRepo   outbox.Repository
	eventFactory *events.EventFactory
	txn          TransactionRunner
	renderer     DocumentRenderer
	metrics      *metrics.Metrics
	logger       *logging.Logger

	whtRate float64
}

// NewDriverPaymentService creates a new DriverPaymentService
func NewDriverPaymentService(
	paymentRepo domain.DriverPaymentRepository,
	shipmentRepo domain.ShipmentRepository,
	documentRepo domain.BillingDocumentRepository,
	sequencer domain.NumberSequencer,
	outboxRepo outbox.Repository,
	eventFactory *events.EventFactory,
	txn TransactionRunner,
	renderer DocumentRenderer,
	metrics *metrics.Metrics,
	logger *logging.Logger,
	whtRate float64,
) *DriverPaymentService {
	return &DriverPaymentService{
		paymentRepo:  paymentRepo,
		shipmentRepo: shipmentRepo,
		documentRepo: documentRepo,
		sequencer:    sequencer,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
		txn:          txn,
		renderer:     renderer,
		metrics:      metrics,
		logger:       logger,
		whtRate:      whtRate,
	}
}

// CreatePayment settles the given shipments with a driver, withholding tax
// at source. Payment and WHT certificate numbers come from the sequencer on
// the base context, so a rolled-back payment burns its numbers; the payment
// record, artifact registrations and event staging commit atomically.
func (s *DriverPaymentService) CreatePayment(ctx context.Context, cmd CreateDriverPaymentCommand) (*DriverPaymentDTO, error) {
	transactions := make([]domain.DriverPaymentTransaction, len(cmd.Transactions))
	shipmentIDs := make([]string, len(cmd.Transactions))
	for i, txn := range cmd.Transactions {
		transactions[i] = domain.DriverPaymentTransaction{
			ShipmentID:  txn.ShipmentID,
			Description: txn.Description,
			Amount:      txn.Amount,
		}
		shipmentIDs[i] = txn.ShipmentID
	}

	shipments, err := s.shipmentRepo.FindByIDs(ctx, shipmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get shipments: %w", err)
	}
	if len(shipments) != len(shipmentIDs) {
		return nil, errors.ErrValidation("one or more shipments do not exist")
	}
	for _, shipment := range shipments {
		if !shipment.Billable() {
			return nil, errors.ErrUnprocessable(
				fmt.Sprintf("shipment %s is not delivered", shipment.ID))
		}
		if shipment.DriverID != cmd.DriverID {
			return nil, errors.ErrValidation(
				fmt.Sprintf("shipment %s does not belong to driver %s", shipment.ID, cmd.DriverID))
		}
	}

	var payment *domain.DriverPayment
	var paymentDoc, whtDoc *domain.BillingDocument

	err = s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		paymentNumber, err := s.sequencer.Next(ctx, domain.DocumentTypeDriverPayment)
		if err != nil {
			return fmt.Errorf("failed to assign payment number: %w", err)
		}

		whtNumber := ""
		if s.whtRate > 0 {
			whtNumber, err = s.sequencer.Next(ctx, domain.DocumentTypeWHTCertificate)
			if err != nil {
				return fmt.Errorf("failed to assign WHT number: %w", err)
			}
		}

		payment, err = domain.NewDriverPayment(cmd.DriverID, transactions, s.whtRate, paymentNumber, whtNumber, cmd.WHTBookNo)
		if err != nil {
			return mapDomainError(err)
		}

		if err := s.paymentRepo.Save(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save driver payment: %w", err)
		}

		paymentDoc, err = s.documentRepo.Upsert(txCtx, paymentNumber, domain.DocumentTypeDriverPayment, artifactFilename(paymentNumber))
		if err != nil {
			return fmt.Errorf("failed to register payment document: %w", err)
		}
		if whtNumber != "" {
			whtDoc, err = s.documentRepo.Upsert(txCtx, whtNumber, domain.DocumentTypeWHTCertificate, artifactFilename(whtNumber))
			if err != nil {
				return fmt.Errorf("failed to register WHT certificate: %w", err)
			}
		}

		event := s.eventFactory.CreateDriverPaymentIssuedEvent(txCtx, payment.ID, shipmentIDs[0], cmd.DriverID, paymentNumber, whtNumber, payment.NetTotal, payment.Tax)
		return s.stageEvents(txCtx, payment.ID, event)
	})
	if err != nil {
		if isNumberingRace(err) {
			s.metrics.RecordNumberingConflict(string(domain.DocumentTypeDriverPayment))
			return nil, mapDomainError(err)
		}
		return nil, err
	}
	payment.ClearDomainEvents()

	s.metrics.RecordDriverPayment()
	s.renderAsync(paymentDoc)
	s.renderAsync(whtDoc)
	s.logger.Info("Driver payment issued",
		"paymentId", payment.ID,
		"driverId", cmd.DriverID,
		"paymentNumber", payment.PaymentNumber,
		"netTotal", payment.NetTotal,
	)

	return ToDriverPaymentDTO(payment), nil
}

// GetPayment retrieves a driver payment by ID
func (s *DriverPaymentService) GetPayment(ctx context.Context, id string) (*DriverPaymentDTO, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver payment: %w", err)
	}
	if payment == nil {
		return nil, errors.ErrNotFoundWithID("driver payment", id)
	}
	return ToDriverPaymentDTO(payment), nil
}

// ListPayments lists payments for a driver
func (s *DriverPaymentService) ListPayments(ctx context.Context, query ListDriverPaymentsQuery) (*DriverPaymentListResponse, error) {
	pagination := domain.Pagination{Page: query.Page, PageSize: query.PageSize}
	if pagination.Page < 1 || pagination.PageSize < 1 {
		pagination = domain.DefaultPagination()
	}

	payments, err := s.paymentRepo.FindByDriverID(ctx, query.DriverID, pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver payments: %w", err)
	}

	dtos := make([]DriverPaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = *ToDriverPaymentDTO(p)
	}

	return &DriverPaymentListResponse{
		Data:     dtos,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	}, nil
}

// stageEvents mirrors BillingService event staging for driver payments.
func (s *DriverPaymentService) stageEvents(ctx context.Context, aggregateID string, cloudEvents ...*events.CloudEvent) error {
	outboxEvents := make([]*outbox.OutboxEvent, 0, len(cloudEvents))
	for _, event := range cloudEvents {
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(aggregateID, "driver_payment", kafka.Topics.PaymentEvents, event)
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

func (s *DriverPaymentService) renderAsync(document *domain.BillingDocument) {
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
