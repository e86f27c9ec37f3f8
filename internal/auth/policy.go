package auth

import (
	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/model"
)

// Policy is the access rule attached to an operation.
type Policy int

const (
	Public Policy = iota
	Authenticated
	RoleAdmin
	OwnerOrAdmin
)

func (p Policy) String() string {
	switch p {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case RoleAdmin:
		return "role_admin"
	case OwnerOrAdmin:
		return "owner_or_admin"
	}
	return "unknown"
}

var (
	ErrForbidden       = apperr.Forbidden("access denied")
	ErrUnauthenticated = apperr.AuthFailed("authentication required")
)

// Principal is the caller identity. The zero value is anonymous.
type Principal struct {
	Subject string
	Role    model.Role
}

func (p Principal) Anonymous() bool { return p.Subject == "" }

// Authorize decides whether p may perform an operation guarded by required.
// owner is the username owning the target resource and is only consulted
// for OwnerOrAdmin. Every denial is ErrForbidden, whatever the target.
func Authorize(p Principal, required Policy, owner string) error {
	if required == Public {
		return nil
	}
	if p.Anonymous() {
		return ErrUnauthenticated
	}
	switch required {
	case Authenticated:
		return nil
	case RoleAdmin:
		if p.Role == model.RoleAdmin {
			return nil
		}
	case OwnerOrAdmin:
		if p.Role == model.RoleAdmin || (owner != "" && p.Subject == owner) {
			return nil
		}
	}
	return ErrForbidden
}

// Operation names a gated API operation.
type Operation string

const (
	OpLogin          Operation = "auth.login"
	OpRegister       Operation = "auth.register"
	OpRefresh        Operation = "auth.refresh"
	OpForgotPassword Operation = "auth.forgot_password"
	OpResetPassword  Operation = "auth.reset_password"
	OpMe             Operation = "auth.me"
	OpLogout         Operation = "auth.logout"
	OpChangePassword Operation = "auth.change_password"

	OpGetProfile    Operation = "user.get_profile"
	OpUpdateProfile Operation = "user.update_profile"
	OpDeleteAccount Operation = "user.delete_account"

	OpListUsers        Operation = "admin.list_users"
	OpUpdateUserRole   Operation = "admin.update_user_role"
	OpToggleUserStatus Operation = "admin.toggle_user_status"

	OpListCustomers     Operation = "customer.list"
	OpGetCustomer       Operation = "customer.get"
	OpSearchCustomers   Operation = "customer.search"
	OpCustomersByStatus Operation = "customer.by_status"
	OpCreateCustomer    Operation = "customer.create"
	OpUpdateCustomer    Operation = "customer.update"
	OpPatchCustomer     Operation = "customer.patch"
	OpDeleteCustomer    Operation = "customer.delete"
)

var policies = map[Operation]Policy{
	OpLogin:          Public,
	OpRegister:       Public,
	OpRefresh:        Public,
	OpForgotPassword: Public,
	OpResetPassword:  Public,

	OpMe:             OwnerOrAdmin,
	OpLogout:         OwnerOrAdmin,
	OpChangePassword: OwnerOrAdmin,
	OpGetProfile:     OwnerOrAdmin,
	OpUpdateProfile:  OwnerOrAdmin,
	OpDeleteAccount:  OwnerOrAdmin,

	OpListUsers:        RoleAdmin,
	OpUpdateUserRole:   RoleAdmin,
	OpToggleUserStatus: RoleAdmin,

	OpListCustomers:     Authenticated,
	OpGetCustomer:       Authenticated,
	OpSearchCustomers:   Authenticated,
	OpCustomersByStatus: Authenticated,
	OpCreateCustomer:    RoleAdmin,
	OpUpdateCustomer:    RoleAdmin,
	OpPatchCustomer:     RoleAdmin,
	OpDeleteCustomer:    RoleAdmin,
}

// PolicyFor returns the policy guarding op. Unknown operations are
// treated as admin-only.
func PolicyFor(op Operation) Policy {
	if p, ok := policies[op]; ok {
		return p
	}
	return RoleAdmin
}
