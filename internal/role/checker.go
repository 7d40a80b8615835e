package role

// Checker answers authorization questions from grants only.
type Checker struct {
	grants Grants
}

func NewChecker(grants Grants) Checker {
	return Checker{grants: grants}
}

func (c Checker) IsAdmin() bool { return c.grants.Has(Admin) }

func (c Checker) CanManageLicenses() bool { return c.grants.Has(Admin) }

func (c Checker) CanManageCatalog() bool { return c.grants.Has(Admin) }

func (c Checker) CanViewAllLicenses() bool { return c.grants.HasAny(Admin, AccountRep) }

func (c Checker) CanViewCRM() bool {
	return c.grants.HasAny(Admin, AccountRep, Marketing, VAR, CustomerRep)
}

func (c Checker) CanManageTickets() bool {
	return c.grants.HasAny(Admin, CustomerRep, Moderator)
}

func (c Checker) CanModerateTickets() bool { return c.grants.HasAny(Admin, Moderator) }

func (c Checker) CanManageUsers() bool { return c.grants.Has(Admin) }
