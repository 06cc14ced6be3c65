// Package ledger tracks balances of the fungible payment asset. All state
// is process-local; transfers either settle in full or fail.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrInsufficientBalance = errors.New("ledger: insufficient balance")

// Ledger holds account balances and moves value between them.
type Ledger struct {
	mu       sync.Mutex
	balances map[common.Address]*uint256.Int
}

func New() *Ledger {
	return &Ledger{balances: make(map[common.Address]*uint256.Int)}
}

// Mint credits amount to account.
func (l *Ledger) Mint(account common.Address, amount *uint256.Int) {
	if amount == nil || amount.IsZero() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(account, amount)
}

// BalanceOf returns a copy of the account balance.
func (l *Ledger) BalanceOf(account common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if bal, ok := l.balances[account]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

// Transfer moves amount from one account to another. It fails without any
// state change when the source balance is too low.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[from]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("account %s: %w", from.Hex(), ErrInsufficientBalance)
	}
	bal.Sub(bal, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(account common.Address, amount *uint256.Int) {
	if bal, ok := l.balances[account]; ok {
		bal.Add(bal, amount)
		return
	}
	l.balances[account] = amount.Clone()
}
