// Package access gates admin entry points to authorized identities.
package access

import "github.com/ethereum/go-ethereum/common"

// SingleController authorizes exactly one identity.
type SingleController struct {
	controller common.Address
}

func NewSingleController(controller common.Address) *SingleController {
	return &SingleController{controller: controller}
}

// IsController reports whether who is the designated controller.
func (p *SingleController) IsController(who common.Address) bool {
	return who == p.controller
}
