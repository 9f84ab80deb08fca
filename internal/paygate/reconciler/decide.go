package reconciler

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/shopspring/decimal"
)

const (
	OutcomeUnchanged = "unchanged"
	OutcomePaid      = "paid"
	OutcomePartial   = "partial"
	OutcomeRetired   = "retired"
	OutcomeSkipped   = "skipped"
	OutcomeConflict  = "conflict"
)

// decide maps a fresh balance of a candidate to the transition to commit.
func decide(a model.Address, received decimal.Decimal, now time.Time) (model.Transition, string) {
	t := model.Transition{To: a.Status, Balance: received, CheckedAt: now}

	latest, ok := a.Metadata.Latest()
	bound := ok && latest.Valid()

	if a.Status == model.AddressRevalidate && received.IsPositive() {
		if !bound {
			t.To = model.AddressXUsed
			return t, OutcomeRetired
		}
		t.To = model.AddressAssigned
	}

	if t.To != model.AddressAssigned || !bound {
		return t, OutcomeUnchanged
	}
	if received.GreaterThanOrEqual(latest.OrderTotal) {
		t.To = model.AddressUsed
		t.MarkLatestPaid = true
		return t, OutcomePaid
	}
	if received.IsPositive() {
		return t, OutcomePartial
	}
	return t, OutcomeUnchanged
}
