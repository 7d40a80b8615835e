package role

// Capabilities is what a dashboard renders. It is a presentation record.
type Capabilities struct {
	CanViewAllUsers      bool   `json:"can_view_all_users"`
	CanViewAllLicenses   bool   `json:"can_view_all_licenses"`
	CanViewCRM           bool   `json:"can_view_crm"`
	CanViewTickets       bool   `json:"can_view_tickets"`
	CanModerateTickets   bool   `json:"can_moderate_tickets"`
	CanManageCatalog     bool   `json:"can_manage_catalog"`
	DashboardTitle       string `json:"dashboard_title"`
	DashboardDescription string `json:"dashboard_description"`
}

type dashboardCopy struct {
	title       string
	description string
}

var dashboards = map[AppRole]dashboardCopy{
	Admin:       {"Admin Dashboard", "Manage users, licenses, catalog and the whole portal"},
	AccountRep:  {"Account Representative Dashboard", "Track your accounts, their licenses and open deals"},
	Marketing:   {"Marketing Dashboard", "Follow leads, campaigns and account engagement"},
	VAR:         {"Partner Dashboard", "Manage the customers and deals you resell to"},
	CustomerRep: {"Customer Success Dashboard", "Handle support tickets and customer accounts"},
	Moderator:   {"Moderation Dashboard", "Review flagged and escalated support tickets"},
	Customer:    {"Customer Dashboard", "View your licenses, demos and support requests"},
	User:        {"Dashboard", "Your account is awaiting access to portal features"},
}

var capabilityTable = map[AppRole]Capabilities{
	AccountRep:  {CanViewAllLicenses: true, CanViewCRM: true},
	Marketing:   {CanViewCRM: true},
	VAR:         {CanViewCRM: true},
	CustomerRep: {CanViewCRM: true, CanViewTickets: true},
	Moderator:   {CanViewTickets: true, CanModerateTickets: true},
	Customer:    {},
	User:        {},
}

// Resolve maps grants and the active persona to capabilities. Admin grants
// receive every capability whatever persona is active; otherwise the flags
// come from the active persona.
func Resolve(grants Grants, active ActiveRole) Capabilities {
	r := active.Role()
	if r == "" {
		r = grants.Highest()
	}

	var caps Capabilities
	if grants.Has(Admin) {
		caps = Capabilities{
			CanViewAllUsers:    true,
			CanViewAllLicenses: true,
			CanViewCRM:         true,
			CanViewTickets:     true,
			CanModerateTickets: true,
			CanManageCatalog:   true,
		}
	} else {
		caps = capabilityTable[r]
	}

	d, ok := dashboards[r]
	if !ok {
		d = dashboards[User]
	}
	caps.DashboardTitle = d.title
	caps.DashboardDescription = d.description
	return caps
}
