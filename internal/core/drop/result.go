package drop

import "fmt"

// Result is the outcome code of a drop operation. Every public entry
// point reports exactly one of these; anything other than OK means the
// operation left state untouched (except the fee-payout caveat on
// MintFeePayout, which is reported through the event, not the code).
type Result int

const (
	// OK means the operation was applied.
	OK Result = iota

	// Capacity
	SoldOut

	// Sale windows
	SaleInactive
	PresaleInactive

	// Eligibility
	AllowlistNotApproved
	PresaleTooManyForAddress
	PurchaseTooManyForAddress

	// Payment
	WrongPrice

	// Authorization
	OnlyAdmin
	MissingRoleOrAdmin
	WithdrawNotAllowed

	// Transfers
	FundsSendFailure

	// Setup
	RoyaltyTooHigh

	// State
	NotOpenEdition

	// Guards and validation
	ReentrantCall
	InvalidQuantity
	InternalError
)

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case SoldOut:
		return "SOLD_OUT"
	case SaleInactive:
		return "SALE_INACTIVE"
	case PresaleInactive:
		return "PRESALE_INACTIVE"
	case AllowlistNotApproved:
		return "ALLOWLIST_NOT_APPROVED"
	case PresaleTooManyForAddress:
		return "PRESALE_TOO_MANY_FOR_ADDRESS"
	case PurchaseTooManyForAddress:
		return "PURCHASE_TOO_MANY_FOR_ADDRESS"
	case WrongPrice:
		return "WRONG_PRICE"
	case OnlyAdmin:
		return "ONLY_ADMIN"
	case MissingRoleOrAdmin:
		return "MISSING_ROLE_OR_ADMIN"
	case WithdrawNotAllowed:
		return "WITHDRAW_NOT_ALLOWED"
	case FundsSendFailure:
		return "FUNDS_SEND_FAILURE"
	case RoyaltyTooHigh:
		return "ROYALTY_PERCENTAGE_TOO_HIGH"
	case NotOpenEdition:
		return "NOT_OPEN_EDITION"
	case ReentrantCall:
		return "REENTRANT_CALL"
	case InvalidQuantity:
		return "INVALID_QUANTITY"
	case InternalError:
		return "INTERNAL_ERROR"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// Message returns a human-readable description of the result.
func (r Result) Message() string {
	switch r {
	case OK:
		return "The operation was applied."
	case SoldOut:
		return "The requested quantity exceeds the remaining edition supply."
	case SaleInactive:
		return "The public sale window is not active."
	case PresaleInactive:
		return "The presale window is not active."
	case AllowlistNotApproved:
		return "The supplied claim is not committed under the presale allow-list root."
	case PresaleTooManyForAddress:
		return "The cumulative presale mints would exceed the proven allowance."
	case PurchaseTooManyForAddress:
		return "The purchase would exceed the per-address public sale limit."
	case WrongPrice:
		return "Payment must equal (unit price + mint fee) times quantity exactly."
	case OnlyAdmin:
		return "Caller must hold the admin role."
	case MissingRoleOrAdmin:
		return "Caller must hold the required role or be an admin."
	case WithdrawNotAllowed:
		return "Caller may not sweep funds from this drop."
	case FundsSendFailure:
		return "The outward funds transfer failed."
	case RoyaltyTooHigh:
		return "Royalty must not exceed 5000 basis points."
	case NotOpenEdition:
		return "The edition was not created open, or was already finalized."
	case ReentrantCall:
		return "Re-entry into a guarded entry point."
	case InvalidQuantity:
		return "Quantity must be positive."
	case InternalError:
		return "Internal failure; no state was changed."
	default:
		return r.String()
	}
}

// IsApplied reports whether the operation mutated state.
func (r Result) IsApplied() bool {
	return r == OK
}
