// Package invoicing provides the Billing Reporter's InvoiceItemCreator
// collaborator. The payment provider integration lives outside this service,
// so this implementation logs the invoice intent and mints a synthetic
// reference, giving the reporting pipeline (idempotent Create,
// reconciliation) something real to persist and audit against.
package invoicing

import (
	"context"
	"fmt"
	"log/slog"

	"shortcut/pkg/ulid"
)

// LoggingInvoiceCreator implements billing.InvoiceItemCreator by logging
// the overage line item at info level. It never calls out to a real
// payment provider.
type LoggingInvoiceCreator struct {
	logger *slog.Logger
}

// New builds a LoggingInvoiceCreator.
func New(logger *slog.Logger) *LoggingInvoiceCreator {
	return &LoggingInvoiceCreator{logger: logger}
}

// CreateOverageInvoiceItem logs the overage charge and returns a synthetic
// reference derived from a fresh ULID.
func (c *LoggingInvoiceCreator) CreateOverageInvoiceItem(ctx context.Context, workspaceID string, description string, units int64, amountCents int64) (string, error) {
	ref := fmt.Sprintf("inv_%s", ulid.New().String())
	c.logger.Info("invoicing: overage line item",
		"workspace_id", workspaceID,
		"description", description,
		"units", units,
		"amount_cents", amountCents,
		"external_ref", ref)
	return ref, nil
}
