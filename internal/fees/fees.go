// Package fees supplies the protocol-wide fee rate and payout destination.
package fees

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxProtocolFee caps the protocol skim at 10% (wad-scaled).
var MaxProtocolFee = uint256.NewInt(100_000_000_000_000_000)

// Static is a fee authority with a fixed multiplier and recipient.
type Static struct {
	multiplier *uint256.Int
	recipient  common.Address
}

func NewStatic(multiplier *uint256.Int, recipient common.Address) (*Static, error) {
	if multiplier == nil {
		multiplier = uint256.NewInt(0)
	}
	if multiplier.Gt(MaxProtocolFee) {
		return nil, fmt.Errorf("protocol fee multiplier %s exceeds maximum %s", multiplier.Dec(), MaxProtocolFee.Dec())
	}
	return &Static{multiplier: multiplier.Clone(), recipient: recipient}, nil
}

// ProtocolFeeMultiplier returns the wad-scaled protocol fee fraction.
func (s *Static) ProtocolFeeMultiplier() *uint256.Int {
	return s.multiplier.Clone()
}

// ProtocolFeeRecipient returns the account protocol fees are paid to.
func (s *Static) ProtocolFeeRecipient() common.Address {
	return s.recipient
}
