package derive

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
)

// SelfCheck verifies the curve arithmetic used by the legacy scheme:
// 1*G must equal the published generator and (n-1)*G + G must be the point at infinity.
func SelfCheck() error {
	params := btcec.S256().Params()

	var one btcec.ModNScalar
	one.SetInt(1)
	var g btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&one, &g)
	g.ToAffine()

	gx := g.X.Bytes()
	gy := g.Y.Bytes()
	var wantX, wantY [32]byte
	params.Gx.FillBytes(wantX[:])
	params.Gy.FillBytes(wantY[:])
	if *gx != wantX || *gy != wantY {
		return fmt.Errorf("%w: generator mismatch", model.ErrMissingMathCapability)
	}

	var minusOne btcec.ModNScalar
	minusOne.NegateVal(&one)
	var p, sum btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&minusOne, &p)
	btcec.AddNonConst(&p, &g, &sum)
	if !sum.Z.IsZero() && !(sum.X.IsZero() && sum.Y.IsZero()) {
		return fmt.Errorf("%w: group order check failed", model.ErrMissingMathCapability)
	}
	return nil
}
