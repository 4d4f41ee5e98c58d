// Package status defines the document state enums and the enforced
// transition tables for purchases, sales and quotations.
package status

import (
	"errors"
	"fmt"
	"time"
)

// Purchase lifecycle statuses.
type PurchaseStatus string

const (
	PurchasePendiente PurchaseStatus = "PENDIENTE"
	PurchaseAprobado  PurchaseStatus = "APROBADO"
	PurchaseRechazado PurchaseStatus = "RECHAZADO"
	PurchaseAnulado   PurchaseStatus = "ANULADO"
)

// Sale lifecycle statuses.
type SaleStatus string

const (
	SalePendiente SaleStatus = "PENDIENTE"
	SalePagado    SaleStatus = "PAGADO"
	SaleAnulado   SaleStatus = "ANULADO"
)

// Quotation persistence states. The richer document status shown to users is
// derived on reads, never stored.
type QuotationState string

const (
	QuotationActivo   QuotationState = "ACTIVO"
	QuotationInactivo QuotationState = "INACTIVO"
)

// Derived quotation display statuses.
type QuotationDisplay string

const (
	QuotationPendiente QuotationDisplay = "PENDIENTE"
	QuotationVencida   QuotationDisplay = "VENCIDA"
	QuotationFacturada QuotationDisplay = "FACTURADA"
)

// ErrInvalidTransition occurs when a status change violates the workflow.
var ErrInvalidTransition = errors.New("invalid status transition")

var purchaseTransitions = map[PurchaseStatus][]PurchaseStatus{
	PurchasePendiente: {PurchaseAprobado, PurchaseRechazado, PurchaseAnulado},
	PurchaseRechazado: {PurchasePendiente},
	PurchaseAprobado:  {PurchaseAnulado},
	PurchaseAnulado:   {},
}

var saleTransitions = map[SaleStatus][]SaleStatus{
	SalePendiente: {SalePagado, SaleAnulado},
	SaleAnulado:   {SalePendiente},
	SalePagado:    {},
}

// ValidPurchaseStatus reports whether s is a member of the purchase enum.
func ValidPurchaseStatus(s PurchaseStatus) bool {
	_, ok := purchaseTransitions[s]
	return ok
}

// ValidSaleStatus reports whether s is a member of the sale enum.
func ValidSaleStatus(s SaleStatus) bool {
	_, ok := saleTransitions[s]
	return ok
}

// CanTransitionPurchase reports whether from may move to to.
func CanTransitionPurchase(from, to PurchaseStatus) bool {
	for _, next := range purchaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionSale reports whether from may move to to.
func CanTransitionSale(from, to SaleStatus) bool {
	for _, next := range saleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionPurchase validates the purchase workflow edge from -> to.
func TransitionPurchase(from, to PurchaseStatus) error {
	if !ValidPurchaseStatus(to) {
		return fmt.Errorf("%w: unknown purchase status %q", ErrInvalidTransition, to)
	}
	if !CanTransitionPurchase(from, to) {
		return fmt.Errorf("%w: purchase %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// TransitionSale validates the sale workflow edge from -> to.
func TransitionSale(from, to SaleStatus) error {
	if !ValidSaleStatus(to) {
		return fmt.Errorf("%w: unknown sale status %q", ErrInvalidTransition, to)
	}
	if !CanTransitionSale(from, to) {
		return fmt.Errorf("%w: sale %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// DeriveQuotationDisplay computes the read-only quotation status shown in
// listings: converted quotations read FACTURADA, expired ones VENCIDA and
// everything else PENDIENTE.
func DeriveQuotationDisplay(converted bool, validUntil time.Time, now time.Time) QuotationDisplay {
	if converted {
		return QuotationFacturada
	}
	if !validUntil.IsZero() && now.After(validUntil) {
		return QuotationVencida
	}
	return QuotationPendiente
}
