package billing

import "context"

// InvoiceItemCreator is the out-of-core payment-provider collaborator contract:
// the Reporter asks it to create an external invoice line item for Pro overage
// and gets back an opaque reference to store on the usage period row.
type InvoiceItemCreator interface {
	CreateOverageInvoiceItem(ctx context.Context, workspaceID string, description string, units int64, amountCents int64) (externalRef string, err error)
}
