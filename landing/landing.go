// Package landing resolves the post-login landing page from an admin's
// permission set.
//
// The permission table is an ordered list of page routes with their
// required permissions. Resolution is a deterministic first-match scan
// in declared order, not a most-privileged-page search: the order of
// entries is a load-bearing part of the table.
package landing

import (
	authflow "github.com/chimerakang/authflow-go"
)

// Table is an ordered permission table.
type Table struct {
	pages []authflow.Page
}

// compile-time check
var _ authflow.Resolver = (*Table)(nil)

// NewTable creates a table preserving the declared page order.
func NewTable(pages ...authflow.Page) *Table {
	cp := make([]authflow.Page, len(pages))
	copy(cp, pages)
	return &Table{pages: cp}
}

// Default is the console's built-in page table. Dashboard is listed
// first so it wins for admins who can view it.
func Default() *Table {
	return NewTable(
		authflow.Page{Route: "/dashboard", Required: []string{"view_dashboard"}},
		authflow.Page{Route: "/invoices", Required: []string{"view_invoices"}},
		authflow.Page{Route: "/barcodes", Required: []string{"view_barcodes", "print_barcodes"}},
		authflow.Page{Route: "/products", Required: []string{"view_products"}},
		authflow.Page{Route: "/settings", Required: []string{"manage_settings"}},
	)
}

// Pages returns the table entries in declared order.
func (t *Table) Pages() []authflow.Page {
	cp := make([]authflow.Page, len(t.pages))
	copy(cp, t.pages)
	return cp
}

// Resolve returns the first page whose full requirement set is a subset
// of the given permissions, and false when no page matches. Callers must
// treat a no-match as a cleared session.
func (t *Table) Resolve(permissions []string) (authflow.Page, bool) {
	held := toSet(permissions)
	for _, p := range t.pages {
		if satisfies(held, p.Required) {
			return p, true
		}
	}
	return authflow.Page{}, false
}

// Allowed reports whether the permission set satisfies the named route.
// Routes absent from the table are denied.
func (t *Table) Allowed(route string, permissions []string) bool {
	held := toSet(permissions)
	for _, p := range t.pages {
		if p.Route == route {
			return satisfies(held, p.Required)
		}
	}
	return false
}

func toSet(perms []string) map[string]bool {
	set := make(map[string]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return set
}

func satisfies(held map[string]bool, required []string) bool {
	for _, r := range required {
		if !held[r] {
			return false
		}
	}
	return true
}
