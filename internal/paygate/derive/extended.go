package derive

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

func deriveExtended(key *hdkeychain.ExtendedKey, index uint32, change bool, net *chaincfg.Params) (string, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return "", fmt.Errorf("index %d is in the hardened range", index)
	}

	chain := uint32(0)
	if change {
		chain = 1
	}
	branch, err := key.Derive(chain)
	if err != nil {
		return "", fmt.Errorf("derive chain %d: %w", chain, err)
	}
	child, err := branch.Derive(index)
	if err != nil {
		return "", fmt.Errorf("derive index %d: %w", index, err)
	}

	pub, err := child.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("child public key: %w", err)
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), net)
	if err != nil {
		return "", fmt.Errorf("encode address: %w", err)
	}
	return addr.EncodeAddress(), nil
}
