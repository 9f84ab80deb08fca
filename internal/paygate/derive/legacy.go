package derive

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// deriveLegacy implements the pre-BIP32 Electrum scheme:
// P = M + SHA256d("<index>:<chain>:" || M.x || M.y) * G, encoded uncompressed.
func deriveLegacy(master *btcec.PublicKey, index uint32, change bool, net *chaincfg.Params) (string, error) {
	mpk := master.SerializeUncompressed()[1:]

	chain := 0
	if change {
		chain = 1
	}
	seed := append([]byte(fmt.Sprintf("%d:%d:", index, chain)), mpk...)

	var offset btcec.ModNScalar
	offset.SetByteSlice(chainhash.DoubleHashB(seed))

	var tweak, base, sum btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&offset, &tweak)
	master.AsJacobian(&base)
	btcec.AddNonConst(&base, &tweak, &sum)
	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return "", errors.New("derived point at infinity")
	}
	sum.ToAffine()

	child := btcec.NewPublicKey(&sum.X, &sum.Y)
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(child.SerializeUncompressed()), net)
	if err != nil {
		return "", fmt.Errorf("encode address: %w", err)
	}
	return addr.EncodeAddress(), nil
}
