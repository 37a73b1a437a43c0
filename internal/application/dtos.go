package application

import (
	"time"

	"github.com/haulmarket/billing-service/internal/domain"
)

// CalculateQuotationCommand represents command to price a booking
type CalculateQuotationCommand struct {
	VehicleTypeID  string   `json:"vehicleTypeId" binding:"required,vehicle_type"`
	Distance       float64  `json:"distance" binding:"required,gt=0"`
	ReturnDistance float64  `json:"returnDistance" binding:"gte=0"`
	IsRounded      bool     `json:"isRounded"`
	DropPoint      int      `json:"dropPoint" binding:"gte=0"`
	ServiceIDs     []string `json:"serviceIds"`
	DiscountCode   string   `json:"discountCode,omitempty"`
	UserID         string   `json:"userId,omitempty"`
	PaymentMethod  string   `json:"paymentMethod" binding:"required,payment_method"`
}

// OpenBillingCommand represents command to open a billing for shipments
type OpenBillingCommand struct {
	ShipmentIDs   []string         `json:"shipmentIds" binding:"required,min=1"`
	PaymentMethod string           `json:"paymentMethod" binding:"required,payment_method"`
	CashDetail    *CashDetailDTO   `json:"cashDetail,omitempty"`
	CreditDetail  *CreditDetailDTO `json:"creditDetail,omitempty"`
	QuotationRef  string           `json:"quotationRef" binding:"required"`
	Amount        AmountDTO        `json:"amount" binding:"required"`
}

// RecordReceiptCommand represents command to record a payment receipt
type RecordReceiptCommand struct {
	BillingID        string  `json:"-"`
	SubTotal         float64 `json:"subTotal" binding:"required,gt=0"`
	Tax              float64 `json:"tax" binding:"gte=0"`
	RefReceiptNumber string  `json:"refReceiptNumber,omitempty"`
}

// PostAdjustmentCommand represents command to post an adjustment note
type PostAdjustmentCommand struct {
	BillingID   string              `json:"-"`
	NewSubTotal float64             `json:"newSubTotal" binding:"required,gte=0"`
	Items       []AdjustmentItemDTO `json:"items,omitempty"`
	Remarks     string              `json:"remarks,omitempty"`
}

// CancelBillingCommand represents command to cancel a draft billing
type CancelBillingCommand struct {
	BillingID string `json:"-"`
	Reason    string `json:"reason" binding:"required"`
}

// ListBillingsQuery represents query to list billings
type ListBillingsQuery struct {
	State         *string
	PaymentMethod *string
	ShipmentID    *string
	InvoiceNumber *string
	FromDate      *time.Time
	ToDate        *time.Time
	Page          int64
	PageSize      int64
}

// CreateDriverPaymentCommand represents command to pay a driver
type CreateDriverPaymentCommand struct {
	DriverID     string                        `json:"driverId" binding:"required"`
	Transactions []DriverPaymentTransactionDTO `json:"transactions" binding:"required,min=1"`
	WHTBookNo    string                        `json:"whtBookNo,omitempty"`
}

// ListDriverPaymentsQuery represents query to list payments for a driver
type ListDriverPaymentsQuery struct {
	DriverID string
	Page     int64
	PageSize int64
}

// ListShipmentsQuery represents query to list shipments
type ListShipmentsQuery struct {
	ShipmentID    *string
	CustomerID    *string
	DriverID      *string
	VehicleTypeID *string
	BillingID     *string
	Statuses      []string
	PickupFrom    *time.Time
	PickupTo      *time.Time
	CustomerName  *string
	DriverName    *string
	SortField     *string
	SortAscending bool
	Skip          *int64
	Limit         *int64
}

// MarkWHTReceivedCommand represents command to record a returned WHT certificate
type MarkWHTReceivedCommand struct {
	OwnerRef   string    `json:"-"`
	ReceivedAt time.Time `json:"receivedAt" binding:"required"`
}

// DTOs

// LineAmountDTO represents one service line on a quotation
type LineAmountDTO struct {
	ServiceRef string  `json:"serviceRef"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
}

// PriceDTO represents the customer-facing side of a quotation
type PriceDTO struct {
	Shipping float64         `json:"shipping"`
	Services []LineAmountDTO `json:"services"`
	Discount float64         `json:"discount"`
	Tax      float64         `json:"tax"`
	SubTotal float64         `json:"subTotal"`
	Total    float64         `json:"total"`
}

// CostDTO represents the internal cost side of a quotation
type CostDTO struct {
	Shipping float64         `json:"shipping"`
	Services []LineAmountDTO `json:"services"`
	SubTotal float64         `json:"subTotal"`
	Total    float64         `json:"total"`
}

// QuotationDetailDTO echoes the booking fields the calculation ran against
type QuotationDetailDTO struct {
	VehicleTypeID string   `json:"vehicleTypeId"`
	IsRounded     bool     `json:"isRounded"`
	DropPoint     int      `json:"dropPoint"`
	ServiceIDs    []string `json:"serviceIds,omitempty"`
	PaymentMethod string   `json:"paymentMethod"`
}

// QuotationDTO represents a quotation response
type QuotationDTO struct {
	ID              string             `json:"id"`
	Price           PriceDTO           `json:"price"`
	Cost            CostDTO            `json:"cost"`
	Distance        float64            `json:"distance"`
	ReturnDistance  float64            `json:"returnDistance"`
	DisplayDistance float64            `json:"displayDistance"`
	Detail          QuotationDetailDTO `json:"detail"`
	DiscountCode    string             `json:"discountCode,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// AmountDTO represents billing totals
type AmountDTO struct {
	SubTotal float64 `json:"subTotal" binding:"gte=0"`
	Tax      float64 `json:"tax" binding:"gte=0"`
	Total    float64 `json:"total" binding:"gte=0"`
}

// CashDetailDTO represents cash payment fields
type CashDetailDTO struct {
	ReceivedAmount float64 `json:"receivedAmount"`
	ReceivedBy     string  `json:"receivedBy,omitempty"`
}

// CreditDetailDTO represents credit billing fields
type CreditDetailDTO struct {
	CompanyName    string `json:"companyName" binding:"required"`
	TaxID          string `json:"taxId" binding:"required"`
	BillingAddress string `json:"billingAddress,omitempty"`
	CreditTermDays int    `json:"creditTermDays" binding:"gte=0"`
}

// InvoiceDTO represents an issued invoice
type InvoiceDTO struct {
	InvoiceNumber string    `json:"invoiceNumber"`
	SubTotal      float64   `json:"subTotal"`
	Tax           float64   `json:"tax"`
	Total         float64   `json:"total"`
	IssuedAt      time.Time `json:"issuedAt"`
}

// ReceiptDTO represents a recorded receipt
type ReceiptDTO struct {
	ReceiptNumber    string    `json:"receiptNumber"`
	ReceiptDate      time.Time `json:"receiptDate"`
	SubTotal         float64   `json:"subTotal"`
	Tax              float64   `json:"tax"`
	Total            float64   `json:"total"`
	RefReceiptNumber string    `json:"refReceiptNumber,omitempty"`
}

// AdjustmentItemDTO represents one corrected line on an adjustment
type AdjustmentItemDTO struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount"`
}

// AdjustmentNoteDTO represents a posted adjustment note
type AdjustmentNoteDTO struct {
	AdjustmentNumber   string              `json:"adjustmentNumber"`
	AdjustmentType     string              `json:"adjustmentType"`
	Items              []AdjustmentItemDTO `json:"items,omitempty"`
	OriginalSubTotal   float64             `json:"originalSubTotal"`
	NewSubTotal        float64             `json:"newSubTotal"`
	AdjustmentSubTotal float64             `json:"adjustmentSubTotal"`
	TaxAmount          float64             `json:"taxAmount"`
	TotalAmount        float64             `json:"totalAmount"`
	Remarks            string              `json:"remarks,omitempty"`
	PostedAt           time.Time           `json:"postedAt"`
}

// BillingDTO represents a billing response
type BillingDTO struct {
	ID              string              `json:"id"`
	ShipmentIDs     []string            `json:"shipmentIds"`
	PaymentMethod   string              `json:"paymentMethod"`
	CashDetail      *CashDetailDTO      `json:"cashDetail,omitempty"`
	CreditDetail    *CreditDetailDTO    `json:"creditDetail,omitempty"`
	QuotationRef    string              `json:"quotationRef"`
	Invoice         *InvoiceDTO         `json:"invoice,omitempty"`
	Receipts        []ReceiptDTO        `json:"receipts"`
	AdjustmentNotes []AdjustmentNoteDTO `json:"adjustmentNotes"`
	Amount          AmountDTO           `json:"amount"`
	State           string              `json:"state"`
	Outstanding     float64             `json:"outstanding"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// BillingListResponse represents paginated billings
type BillingListResponse struct {
	Data     []BillingDTO `json:"data"`
	Total    int64        `json:"total"`
	Page     int64        `json:"page"`
	PageSize int64        `json:"pageSize"`
}

// DriverPaymentTransactionDTO represents one shipment payout line
type DriverPaymentTransactionDTO struct {
	ShipmentID  string  `json:"shipmentId" binding:"required"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount" binding:"required,gte=0"`
}

// DriverPaymentDTO represents a driver payment response
type DriverPaymentDTO struct {
	ID            string                        `json:"id"`
	DriverID      string                        `json:"driverId"`
	PaymentNumber string                        `json:"paymentNumber"`
	Transactions  []DriverPaymentTransactionDTO `json:"transactions"`
	SubTotal      float64                       `json:"subTotal"`
	Tax           float64                       `json:"tax"`
	NetTotal      float64                       `json:"netTotal"`
	WHTRate       float64                       `json:"whtRate"`
	WHTNumber     string                        `json:"whtNumber,omitempty"`
	WHTBookNo     string                        `json:"whtBookNo,omitempty"`
	CreatedAt     time.Time                     `json:"createdAt"`
}

// DriverPaymentListResponse represents paginated driver payments
type DriverPaymentListResponse struct {
	Data     []DriverPaymentDTO `json:"data"`
	Page     int64              `json:"page"`
	PageSize int64              `json:"pageSize"`
}

// DocumentDTO represents a registered document artifact
type DocumentDTO struct {
	ID                      string     `json:"id"`
	OwnerRef                string     `json:"ownerRef"`
	DocumentType            string     `json:"documentType"`
	Filename                string     `json:"filename"`
	ReceivedWHTDocumentDate *time.Time `json:"receivedWhtDocumentDate,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

// ShipmentListingDTO represents one row of the shipment listing
type ShipmentListingDTO struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	StatusWeight  int       `json:"statusWeight"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	Distance      float64   `json:"distance"`
	PickupDate    time.Time `json:"pickupDate"`
	CustomerName  string    `json:"customerName,omitempty"`
	DriverName    string    `json:"driverName,omitempty"`
	VehicleTypeID string    `json:"vehicleTypeId"`
	VehicleName   string    `json:"vehicleName,omitempty"`
	BillingID     string    `json:"billingId,omitempty"`
	BillingState  string    `json:"billingState,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ShipmentListResponse represents a shipment listing page
type ShipmentListResponse struct {
	Data []ShipmentListingDTO `json:"data"`
}

// Conversion functions

func toLineAmountDTOs(lines []domain.LineAmount) []LineAmountDTO {
	dtos := make([]LineAmountDTO, len(lines))
	for i, l := range lines {
		dtos[i] = LineAmountDTO{ServiceRef: l.ServiceRef, Name: l.Name, Amount: l.Amount}
	}
	return dtos
}

// ToQuotationDTO converts a domain quotation to DTO
func ToQuotationDTO(q *domain.Quotation) *QuotationDTO {
	return &QuotationDTO{
		ID: q.ID,
		Price: PriceDTO{
			Shipping: q.Price.Shipping,
			Services: toLineAmountDTOs(q.Price.Services),
			Discount: q.Price.Discount,
			Tax:      q.Price.Tax,
			SubTotal: q.Price.SubTotal,
			Total:    q.Price.Total,
		},
		Cost: CostDTO{
			Shipping: q.Cost.Shipping,
			Services: toLineAmountDTOs(q.Cost.Services),
			SubTotal: q.Cost.SubTotal,
			Total:    q.Cost.Total,
		},
		Distance:        q.Input.Distance,
		ReturnDistance:  q.Input.ReturnDistance,
		DisplayDistance: q.Input.DisplayDistance(),
		Detail: QuotationDetailDTO{
			VehicleTypeID: q.Input.VehicleTypeID,
			IsRounded:     q.Input.IsRounded,
			DropPoint:     q.Input.DropPoint,
			ServiceIDs:    q.Input.ServiceIDs,
			PaymentMethod: string(q.Input.PaymentMethod),
		},
		DiscountCode: q.DiscountCode,
		CreatedAt:    q.CreatedAt,
	}
}

// ToBillingDTO converts a domain billing to DTO
func ToBillingDTO(b *domain.Billing) *BillingDTO {
	receipts := make([]ReceiptDTO, len(b.Receipts))
	for i, r := range b.Receipts {
		receipts[i] = ReceiptDTO{
			ReceiptNumber:    r.ReceiptNumber,
			ReceiptDate:      r.ReceiptDate,
			SubTotal:         r.SubTotal,
			Tax:              r.Tax,
			Total:            r.Total,
			RefReceiptNumber: r.RefReceiptNumber,
		}
	}

	notes := make([]AdjustmentNoteDTO, len(b.AdjustmentNotes))
	for i, n := range b.AdjustmentNotes {
		items := make([]AdjustmentItemDTO, len(n.Items))
		for j, item := range n.Items {
			items[j] = AdjustmentItemDTO{Description: item.Description, Amount: item.Amount}
		}
		notes[i] = AdjustmentNoteDTO{
			AdjustmentNumber:   n.AdjustmentNumber,
			AdjustmentType:     string(n.AdjustmentType),
			Items:              items,
			OriginalSubTotal:   n.OriginalSubTotal,
			NewSubTotal:        n.NewSubTotal,
			AdjustmentSubTotal: n.AdjustmentSubTotal,
			TaxAmount:          n.TaxAmount,
			TotalAmount:        n.TotalAmount,
			Remarks:            n.Remarks,
			PostedAt:           n.PostedAt,
		}
	}

	dto := &BillingDTO{
		ID:              b.ID,
		ShipmentIDs:     b.ShipmentIDs,
		PaymentMethod:   string(b.PaymentMethod),
		QuotationRef:    b.QuotationRef,
		Receipts:        receipts,
		AdjustmentNotes: notes,
		Amount:          AmountDTO{SubTotal: b.Amount.SubTotal, Tax: b.Amount.Tax, Total: b.Amount.Total},
		State:           string(b.State),
		Outstanding:     b.Outstanding(),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}

	if b.CashDetail != nil {
		dto.CashDetail = &CashDetailDTO{
			ReceivedAmount: b.CashDetail.ReceivedAmount,
			ReceivedBy:     b.CashDetail.ReceivedBy,
		}
	}
	if b.CreditDetail != nil {
		dto.CreditDetail = &CreditDetailDTO{
			CompanyName:    b.CreditDetail.CompanyName,
			TaxID:          b.CreditDetail.TaxID,
			BillingAddress: b.CreditDetail.BillingAddress,
			CreditTermDays: b.CreditDetail.CreditTermDays,
		}
	}
	if b.Invoice != nil {
		dto.Invoice = &InvoiceDTO{
			InvoiceNumber: b.Invoice.InvoiceNumber,
			SubTotal:      b.Invoice.SubTotal,
			Tax:           b.Invoice.Tax,
			Total:         b.Invoice.Total,
			IssuedAt:      b.Invoice.IssuedAt,
		}
	}

	return dto
}

// ToDriverPaymentDTO converts a domain driver payment to DTO
func ToDriverPaymentDTO(p *domain.DriverPayment) *DriverPaymentDTO {
	txns := make([]DriverPaymentTransactionDTO, len(p.Transactions))
	for i, txn := range p.Transactions {
		txns[i] = DriverPaymentTransactionDTO{
			ShipmentID:  txn.ShipmentID,
			Description: txn.Description,
			Amount:      txn.Amount,
		}
	}

	return &DriverPaymentDTO{
		ID:            p.ID,
		DriverID:      p.DriverID,
		PaymentNumber: p.PaymentNumber,
		Transactions:  txns,
		SubTotal:      p.SubTotal,
		Tax:           p.Tax,
		NetTotal:      p.NetTotal,
		WHTRate:       p.WHTRate,
		WHTNumber:     p.WHTNumber,
		WHTBookNo:     p.WHTBookNo,
		CreatedAt:     p.CreatedAt,
	}
}

// ToDocumentDTO converts a domain billing document to DTO
func ToDocumentDTO(d *domain.BillingDocument) *DocumentDTO {
	return &DocumentDTO{
		ID:                      d.ID,
		OwnerRef:                d.OwnerRef,
		DocumentType:            string(d.DocumentType),
		Filename:                d.Filename,
		ReceivedWHTDocumentDate: d.ReceivedWHTDocumentDate,
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               d.UpdatedAt,
	}
}

// ToShipmentListingDTO converts a listing row to DTO
func ToShipmentListingDTO(l domain.ShipmentListing) ShipmentListingDTO {
	return ShipmentListingDTO{
		ID:            l.ID,
		Status:        string(l.Status),
		StatusWeight:  l.StatusWeight,
		Origin:        l.Origin,
		Destination:   l.Destination,
		Distance:      l.Distance,
		PickupDate:    l.PickupDate,
		CustomerName:  l.CustomerName,
		DriverName:    l.DriverName,
		VehicleTypeID: l.VehicleTypeID,
		VehicleName:   l.VehicleName,
		BillingID:     l.BillingID,
		BillingState:  string(l.BillingState),
		CreatedAt:     l.CreatedAt,
	}
}
