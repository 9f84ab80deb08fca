// Package derive turns a merchant master public key into receiving addresses.
package derive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
)

// Kind is the master key scheme.
type Kind int

const (
	KindLegacy Kind = iota + 1
	KindExtended
)

func (k Kind) String() string {
	switch k {
	case KindLegacy:
		return "legacy"
	case KindExtended:
		return "extended"
	default:
		return "unknown"
	}
}

var (
	legacyKeyPattern   = regexp.MustCompile(`^[a-f0-9]{128}$`)
	extendedKeyPattern = regexp.MustCompile(`^[xt]pub[a-zA-Z0-9]{107}$`)
)

// MasterKey is a parsed master public key. The zero value is not usable.
type MasterKey struct {
	kind   Kind
	raw    string
	net    *chaincfg.Params
	legacy *btcec.PublicKey
	xpub   *hdkeychain.ExtendedKey
}

// ParseMasterKey detects the key scheme and decodes it once.
func ParseMasterKey(raw string) (MasterKey, error) {
	switch {
	case legacyKeyPattern.MatchString(raw):
		mpk, err := hex.DecodeString(raw)
		if err != nil {
			return MasterKey{}, fmt.Errorf("%w: %v", model.ErrInvalidKeyFormat, err)
		}
		point, err := btcec.ParsePubKey(append([]byte{0x04}, mpk...))
		if err != nil {
			return MasterKey{}, fmt.Errorf("%w: legacy key is not a curve point: %v", model.ErrInvalidKeyFormat, err)
		}
		return MasterKey{kind: KindLegacy, raw: raw, net: &chaincfg.MainNetParams, legacy: point}, nil

	case extendedKeyPattern.MatchString(raw):
		key, err := hdkeychain.NewKeyFromString(raw)
		if err != nil {
			return MasterKey{}, fmt.Errorf("%w: %v", model.ErrInvalidKeyFormat, err)
		}
		if key.IsPrivate() {
			return MasterKey{}, fmt.Errorf("%w: private extended key", model.ErrInvalidKeyFormat)
		}
		net := &chaincfg.MainNetParams
		if !key.IsForNet(net) {
			net = &chaincfg.TestNet3Params
		}
		return MasterKey{kind: KindExtended, raw: raw, net: net, xpub: key}, nil

	default:
		return MasterKey{}, model.ErrInvalidKeyFormat
	}
}

// Kind reports the key scheme.
func (k MasterKey) Kind() Kind {
	return k.kind
}

// OriginID identifies the key in the address store.
func (k MasterKey) OriginID() string {
	return k.raw
}

// Fingerprint is a short non-reversible label safe for logs and metrics.
func (k MasterKey) Fingerprint() string {
	sum := sha256.Sum256([]byte(k.raw))
	return hex.EncodeToString(sum[:4])
}

// Network returns the chain parameters addresses are encoded for.
func (k MasterKey) Network() *chaincfg.Params {
	return k.net
}

// Derive returns the P2PKH address at index on the receive or change chain.
func (k MasterKey) Derive(index uint32, change bool) (string, error) {
	switch k.kind {
	case KindLegacy:
		return deriveLegacy(k.legacy, index, change, k.net)
	case KindExtended:
		return deriveExtended(k.xpub, index, change, k.net)
	default:
		return "", model.ErrInvalidKeyFormat
	}
}
