package engine

// receiveMode tells the custody-accepting subroutine whether inbound items
// are expected. It is passed explicitly rather than read from shared state
// so the legitimate-receive window is visible at every call site.
type receiveMode int

const (
	receiveIdle receiveMode = iota
	receiveActive
)

// receiveGuard is the Idle/Receiving state machine protecting custody.
// Inbound transfer notifications observed while idle are rejected, which
// keeps custody changes confined to the swap and deposit paths. The depth
// counter lets a rollback re-open the window while it returns items.
type receiveGuard struct {
	depth int
}

func (g *receiveGuard) begin() {
	g.depth++
}

func (g *receiveGuard) end() {
	g.depth--
}

// observe is invoked for every inbound transfer settling on a pool account.
func (g *receiveGuard) observe() error {
	if g.depth == 0 {
		return ErrUnsolicitedTransfer
	}
	return nil
}
