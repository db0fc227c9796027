package drop

import (
	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/roles"
)

// Outcome is the full result of an operation: the Result code plus the
// payload fields particular codes carry.
type Outcome struct {
	Result Result `json:"result"`

	// FirstTokenID is the identifier of the first entry issued by an
	// accepted mint operation.
	FirstTokenID uint64 `json:"firstTokenId,omitempty"`

	// Quantity is the number of entries issued.
	Quantity uint64 `json:"quantity,omitempty"`

	// CorrectPrice accompanies WrongPrice: the exact payment the
	// operation required.
	CorrectPrice amount.Amount `json:"correctPrice,omitempty"`

	// Role accompanies MissingRoleOrAdmin: the role that was required.
	Role roles.Role `json:"role,omitempty"`

	// Amount accompanies an accepted withdraw: the value swept.
	Amount amount.Amount `json:"amount,omitempty"`
}

// OK reports whether the operation was applied.
func (o Outcome) OK() bool { return o.Result.IsApplied() }

func failure(r Result) Outcome {
	return Outcome{Result: r}
}

func wrongPrice(correct amount.Amount) Outcome {
	return Outcome{Result: WrongPrice, CorrectPrice: correct}
}

func missingRole(role roles.Role) Outcome {
	return Outcome{Result: MissingRoleOrAdmin, Role: role}
}
