package role

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type AppRole string

const (
	Admin       AppRole = "admin"
	AccountRep  AppRole = "account_rep"
	Marketing   AppRole = "marketing"
	VAR         AppRole = "var"
	CustomerRep AppRole = "customer_rep"
	Moderator   AppRole = "moderator"
	Customer    AppRole = "customer"
	User        AppRole = "user"
)

// precedence lists roles highest privilege first.
var precedence = []AppRole{Admin, AccountRep, Marketing, VAR, CustomerRep, Moderator, Customer, User}

var ErrRoleNotHeld = errors.New("role not held")

func All() []AppRole {
	out := make([]AppRole, len(precedence))
	copy(out, precedence)
	return out
}

func (r AppRole) Valid() bool {
	for _, p := range precedence {
		if p == r {
			return true
		}
	}
	return false
}

func (r AppRole) rank() int {
	for i, p := range precedence {
		if p == r {
			return i
		}
	}
	return len(precedence)
}

func Parse(s string) (AppRole, error) {
	r := AppRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Grants are the roles actually assigned to a user.
type Grants []AppRole

func ParseGrants(values []string) (Grants, error) {
	var g Grants
	for _, v := range values {
		r, err := Parse(v)
		if err != nil {
			return nil, err
		}
		if !g.Has(r) {
			g = append(g, r)
		}
	}
	sort.SliceStable(g, func(i, j int) bool { return g[i].rank() < g[j].rank() })
	return g, nil
}

func (g Grants) Has(r AppRole) bool {
	for _, held := range g {
		if held == r {
			return true
		}
	}
	return false
}

func (g Grants) HasAny(roles ...AppRole) bool {
	for _, r := range roles {
		if g.Has(r) {
			return true
		}
	}
	return false
}

// Highest returns the most privileged held role, or User when nothing is held.
func (g Grants) Highest() AppRole {
	best := User
	for _, r := range g {
		if r.Valid() && r.rank() < best.rank() {
			best = r
		}
	}
	return best
}

func (g Grants) Strings() []string {
	out := make([]string, len(g))
	for i, r := range g {
		out[i] = string(r)
	}
	return out
}
