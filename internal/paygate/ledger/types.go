package ledger

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Repository interface {
		InsertBalanceChecks(ctx context.Context, checks []model.BalanceCheck) error
		InsertPayments(ctx context.Context, payments []model.PaymentRecord) error
	}
)
