package engine

import "fmt"

// PoolType constrains which swap directions a listing supports.
type PoolType int

const (
	// PoolTypeBuy listings only acquire items from traders.
	PoolTypeBuy PoolType = iota
	// PoolTypeSell listings only dispose items to traders.
	PoolTypeSell
	// PoolTypeTrade listings support both directions and may charge a fee.
	PoolTypeTrade
)

func (t PoolType) String() string {
	switch t {
	case PoolTypeBuy:
		return "buy"
	case PoolTypeSell:
		return "sell"
	case PoolTypeTrade:
		return "trade"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParsePoolType parses the string form used in op logs and storage.
func ParsePoolType(s string) (PoolType, error) {
	switch s {
	case "buy":
		return PoolTypeBuy, nil
	case "sell":
		return PoolTypeSell, nil
	case "trade":
		return PoolTypeTrade, nil
	default:
		return 0, fmt.Errorf("unknown pool type %q", s)
	}
}
