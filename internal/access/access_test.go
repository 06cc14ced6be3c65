package access

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSingleController(t *testing.T) {
	controller := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	other := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	p := NewSingleController(controller)
	if !p.IsController(controller) {
		t.Fatalf("controller not recognized")
	}
	if p.IsController(other) {
		t.Fatalf("non-controller recognized as controller")
	}
}
