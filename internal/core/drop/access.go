package drop

import (
	"github.com/0xHustling/ERC721-Drops/internal/core/roles"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// Access gate. Two tiers: admin-or-specific-role and admin-only. Holding
// Admin satisfies every requirement.

func (e *Engine) isAdmin(addr types.Address) bool {
	return e.roles.HasRole(roles.Admin, addr)
}

// hasRoleOrAdmin reports whether addr holds the role or is an admin.
func (e *Engine) hasRoleOrAdmin(role roles.Role, addr types.Address) bool {
	return e.isAdmin(addr) || e.roles.HasRole(role, addr)
}

// canWithdraw allows admins, sales managers and the funds recipient
// itself to sweep the balance.
func (e *Engine) canWithdraw(addr types.Address) bool {
	return e.hasRoleOrAdmin(roles.SalesManager, addr) || addr == e.config.FundsRecipient
}
