package service

import (
	"context"
	"testing"

	"invoicehub/internal/billing"
	"invoicehub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) pending(t *testing.T, clientID string, items ...InvoiceItemRequest) InvoiceResponse {
	t.Helper()
	inv := h.draft(t, clientID, items...)
	sent, err := h.invoices.SendInvoice(context.Background(), h.owner, inv.ID)
	require.NoError(t, err)
	return sent
}

func TestRecordPayment_PartialThenFull(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "Acme", "GB")
	inv := h.pending(t, c.ID, item("Consulting", 1, "100"))

	partial, err := h.payments.RecordPayment(ctx, h.owner, inv.ID, RecordPaymentRequest{Amount: dec("50"), Reference: "TX-1"})
	require.NoError(t, err)
	assert.Equal(t, "pending", partial.Status)
	assert.Equal(t, "50.00", partial.AmountPaid)
	assert.Equal(t, "70.00", partial.BalanceDue)
	assert.Equal(t, model.PaymentMethodBankTransfer, partial.Payments[0].Method)

	full, err := h.payments.RecordPayment(ctx, h.owner, inv.ID, RecordPaymentRequest{Amount: dec("70"), PaidAt: "2024-03-14"})
	require.NoError(t, err)
	assert.Equal(t, "paid", full.Status)
	assert.Equal(t, "0.00", full.BalanceDue)
	require.NotNil(t, full.PaidAt)
	assert.Equal(t, "2024-03-14", *full.PaidAt)

	assert.Equal(t, "120.00", billing.Format(h.clientModel(t, c.ID).TotalSpent))
	assert.Contains(t, h.events.names(), EventPaymentRecorded)

	list, err := h.payments.ListPayments(ctx, h.owner, inv.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRecordPayment_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "Acme", "")
	open := h.pending(t, c.ID, item("x", 1, "100"))
	draft := h.draft(t, c.ID, item("y", 1, "100"))

	testCases := []struct {
		name      string
		invoiceID string
		req       RecordPaymentRequest
		wantErr   error
		field     string
	}{
		{name: "zero_amount", invoiceID: open.ID, req: RecordPaymentRequest{Amount: dec("0")}, field: "amount"},
		{name: "negative_amount", invoiceID: open.ID, req: RecordPaymentRequest{Amount: dec("-1")}, field: "amount"},
		{name: "overpayment", invoiceID: open.ID, req: RecordPaymentRequest{Amount: dec("100.01")}, field: "amount"},
		{name: "unknown_method", invoiceID: open.ID, req: RecordPaymentRequest{Amount: dec("1"), Method: "barter"}, field: "method"},
		{name: "draft_invoice", invoiceID: draft.ID, req: RecordPaymentRequest{Amount: dec("1")}, wantErr: ErrConflict},
		{name: "bad_invoice_id", invoiceID: "x", req: RecordPaymentRequest{Amount: dec("1")}, field: "invoice_id"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.payments.RecordPayment(ctx, h.owner, tc.invoiceID, tc.req)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.field != "" {
				assert.Contains(t, fieldNames(err), tc.field)
			}
		})
	}
	assert.Empty(t, h.store.payments)
}

func TestDeletePayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "Acme", "")
	inv := h.pending(t, c.ID, item("x", 1, "100"))

	withPayment, err := h.payments.RecordPayment(ctx, h.owner, inv.ID, RecordPaymentRequest{Amount: dec("40")})
	require.NoError(t, err)
	paymentID := withPayment.Payments[0].ID

	other := h.pending(t, c.ID, item("y", 1, "10"))
	_, err = h.payments.DeletePayment(ctx, h.owner, other.ID, paymentID)
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := h.payments.DeletePayment(ctx, h.owner, inv.ID, paymentID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", after.BalanceDue)
	assert.Empty(t, after.Payments)

	paid, err := h.payments.RecordPayment(ctx, h.owner, inv.ID, RecordPaymentRequest{Amount: dec("100")})
	require.NoError(t, err)
	_, err = h.payments.DeletePayment(ctx, h.owner, inv.ID, paid.Payments[0].ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateInvoice_WithPaymentsKeepsAmountsFrozen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "Acme", "GB")
	inv := h.pending(t, c.ID, item("Consulting", 1, "100"))
	require.Equal(t, "120.00", inv.Total)

	_, err := h.payments.RecordPayment(ctx, h.owner, inv.ID, RecordPaymentRequest{Amount: dec("110")})
	require.NoError(t, err)

	testCases := []struct {
		name string
		req  UpdateInvoiceRequest
	}{
		{name: "lower_tax_rate", req: UpdateInvoiceRequest{TaxRate: decPtr("0")}},
		{name: "change_tax_type", req: UpdateInvoiceRequest{TaxType: strPtr("gst")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.invoices.UpdateInvoice(ctx, h.owner, inv.ID, tc.req)
			assert.ErrorIs(t, err, ErrConflict)
		})
	}

	notes, err := h.invoices.UpdateInvoice(ctx, h.owner, inv.ID, UpdateInvoiceRequest{Notes: strPtr("net 30")})
	require.NoError(t, err)
	assert.Equal(t, "120.00", notes.Total)
	assert.Equal(t, "10.00", notes.BalanceDue)

	settled, err := h.payments.RecordPayment(ctx, h.owner, inv.ID, RecordPaymentRequest{Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, "paid", settled.Status)
}
