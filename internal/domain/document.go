package domain

import (
	"time"
)

// DocumentType names the kind of financial document an artifact belongs to.
type DocumentType string

const (
	DocumentTypeInvoice        DocumentType = "INVOICE"
	DocumentTypeReceipt        DocumentType = "RECEIPT"
	DocumentTypeAdjustment     DocumentType = "ADJUSTMENT"
	DocumentTypeDriverPayment  DocumentType = "DRIVER_PAYMENT"
	DocumentTypeWHTCertificate DocumentType = "WHT_CERTIFICATE"
)

// IsValid checks if the document type is valid
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeInvoice, DocumentTypeReceipt, DocumentTypeAdjustment,
		DocumentTypeDriverPayment, DocumentTypeWHTCertificate:
		return true
	}
	return false
}

// BillingDocument is the artifact-pointer record bound to exactly one owning
// financial record. Its identity is the owner, not the filename: at most one
// record exists per owner, and regeneration updates Filename in place.
type BillingDocument struct {
	ID                      string       `bson:"_id" json:"id"`
	OwnerRef                string       `bson:"ownerRef" json:"ownerRef"`
	DocumentType            DocumentType `bson:"documentType" json:"documentType"`
	Filename                string       `bson:"filename" json:"filename"`
	ReceivedWHTDocumentDate *time.Time   `bson:"receivedWhtDocumentDate,omitempty" json:"receivedWhtDocumentDate,omitempty"`
	CreatedAt               time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time    `bson:"updatedAt" json:"updatedAt"`
}
