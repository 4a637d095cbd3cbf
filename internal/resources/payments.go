package resources

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
)

// Payment statuses.
const (
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// PaymentBehavior simulates the capture of new payments and offers the
// refund action.
func PaymentBehavior() engine.Behavior {
	return engine.Behavior{
		Derive: capturePayment,
		Actions: map[string]engine.Action{
			"refund": {Run: refundPayment, Creates: true},
		},
	}
}

// capturePayment draws the capture outcome and assigns the transaction id.
func capturePayment(tx *engine.Tx, rec ir.IRObject) error {
	status := PaymentFailed
	if tx.Succeeded() {
		status = PaymentCompleted
	}
	rec["status"] = ir.IRString(status)
	rec["transactionId"] = ir.IRString("txn_" + tx.Token())
	return nil
}

// refundPayment appends a refund record against a completed payment.
// The original payment is not modified.
func refundPayment(tx *engine.Tx, payment, input ir.IRObject) (ir.IRObject, error) {
	if tx.Status(payment) != PaymentCompleted {
		return nil, engine.NewDomainError("Can only refund completed payments", nil)
	}
	if _, isRefund := payment["originalPaymentId"]; isRefund {
		return nil, engine.NewDomainError("Cannot refund a refund", nil)
	}

	original, _ := ir.AsDecimal(payment["amount"])

	amount := original
	if raw := input["amount"]; !ir.IsBlank(raw) {
		requested, err := refundAmount(raw)
		if err != nil {
			return nil, err
		}
		if requested.GreaterThan(original) {
			return nil, engine.NewDomainError("Refund amount cannot exceed payment amount", nil)
		}
		amount = requested
	}

	paymentID, _ := payment.ID()
	refund := ir.IRObject{
		"orderId":           payment["orderId"],
		"amount":            ir.NewIRNumber(amount.Neg()),
		"method":            payment["method"],
		"status":            ir.IRString(PaymentCompleted),
		"transactionId":     ir.IRString("refund_" + tx.Token()),
		"originalPaymentId": ir.IRInt(paymentID),
		"processedAt":       tx.Now(),
	}

	stored, err := tx.Insert(refund)
	if err != nil {
		return nil, err
	}

	slog.Info("payment refunded", "payment_id", paymentID, "amount", amount.String())
	return stored, nil
}

// refundAmount reads a requested refund amount. Numeric strings are
// accepted, as for create.
func refundAmount(raw ir.IRValue) (decimal.Decimal, error) {
	d, ok := ir.ParseDecimal(raw)
	if !ok {
		return decimal.Decimal{}, engine.NewValidationError("amount must be a number", map[string]any{"field": "amount"})
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, engine.NewValidationError("amount must be positive", map[string]any{"field": "amount"})
	}
	return d, nil
}
