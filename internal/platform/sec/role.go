// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// Role represents the authorization level the backend granted to an account.
type Role string

const (
	// Store administration (products, categories, orders, users, analytics)
	RoleAdmin Role = "ADMIN"

	// Default role for registered shoppers
	RoleCustomer Role = "CUSTOMER"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// Valid reports whether r is one of the roles the backend issues.
func (r Role) Valid() bool {
	return r.level() > 0
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {
	switch r {
	case RoleAdmin:
		return 40
	case RoleCustomer:
		return 10
	default:
		return 0
	}
}
