package role

// ActiveRole is the persona a dashboard is rendered as. A granted active role
// is one the user holds; a preview is an admin looking at another persona.
// Neither form is ever used for authorization.
type ActiveRole struct {
	role    AppRole
	preview bool
}

func (a ActiveRole) Role() AppRole   { return a.role }
func (a ActiveRole) IsPreview() bool { return a.preview }

func (a ActiveRole) String() string {
	if a.preview {
		return string(a.role) + " (preview)"
	}
	return string(a.role)
}

func Granted(r AppRole) ActiveRole { return ActiveRole{role: r} }

// SelectActiveRole resolves the requested persona against the grants.
// An empty request yields the highest held role.
func SelectActiveRole(grants Grants, requested AppRole) (ActiveRole, error) {
	if requested == "" {
		return Granted(grants.Highest()), nil
	}
	if !requested.Valid() {
		return ActiveRole{}, ErrRoleNotHeld
	}
	if grants.Has(requested) {
		return Granted(requested), nil
	}
	if grants.Has(Admin) {
		return ActiveRole{role: requested, preview: true}, nil
	}
	return ActiveRole{}, ErrRoleNotHeld
}
