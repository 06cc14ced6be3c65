package curve

import "github.com/holiman/uint256"

// Wad is the fixed-point scale: 1e18 represents 1.0.
var Wad = uint256.NewInt(1e18)

// mulWad computes x*y/1e18 with full intermediate precision. The second
// return value is false when the result does not fit in 256 bits.
func mulWad(x, y *uint256.Int) (*uint256.Int, bool) {
	z := new(uint256.Int)
	_, overflow := z.MulDivOverflow(x, y, Wad)
	return z, !overflow
}

// divWad computes x*1e18/y with full intermediate precision. Division by
// zero reports failure.
func divWad(x, y *uint256.Int) (*uint256.Int, bool) {
	if y.IsZero() {
		return nil, false
	}
	z := new(uint256.Int)
	_, overflow := z.MulDivOverflow(x, Wad, y)
	return z, !overflow
}

// powWad raises a wad-scaled base to a small integer exponent.
func powWad(base *uint256.Int, exp uint64) (*uint256.Int, bool) {
	result := Wad.Clone()
	for i := uint64(0); i < exp; i++ {
		next, ok := mulWad(result, base)
		if !ok {
			return nil, false
		}
		result = next
	}
	return result, true
}
