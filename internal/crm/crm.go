package crm

import (
	"time"

	crmDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/crm"
)

const (
	AccountStatusProspect = "prospect"
	AccountStatusActive   = "active"
	AccountStatusChurned  = "churned"
)

func AccountStatuses() []string {
	return []string{AccountStatusProspect, AccountStatusActive, AccountStatusChurned}
}

const (
	StageQualification = "qualification"
	StageDiscovery     = "discovery"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

func DealStages() []string {
	return []string{StageQualification, StageDiscovery, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost}
}

const (
	ActivityCall     = "call"
	ActivityEmail    = "email"
	ActivityMeeting  = "meeting"
	ActivityTask     = "task"
	ActivityNote     = "note"
	ActivityDemo     = "demo"
	ActivityFollowUp = "follow_up"
)

func ActivityTypes() []string {
	return []string{ActivityCall, ActivityEmail, ActivityMeeting, ActivityTask, ActivityNote, ActivityDemo, ActivityFollowUp}
}

const (
	ActivityPending   = "pending"
	ActivityCompleted = "completed"
	ActivityCancelled = "cancelled"
)

func ActivityStatuses() []string {
	return []string{ActivityPending, ActivityCompleted, ActivityCancelled}
}

type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Industry  string    `json:"industry"`
	Website   string    `json:"website"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	OwnerID   *int64    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Contact struct {
	ID        int64     `json:"id"`
	AccountID *int64    `json:"account_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Title     string    `json:"title"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Contact) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Deal struct {
	ID                int64      `json:"id"`
	AccountID         *int64     `json:"account_id"`
	ContactID         *int64     `json:"contact_id"`
	Title             string     `json:"title"`
	Stage             string     `json:"stage"`
	Amount            float64    `json:"amount"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsClosed reports whether the deal reached a terminal stage.
func (d *Deal) IsClosed() bool {
	return d.Stage == StageClosedWon || d.Stage == StageClosedLost
}

type Activity struct {
	ID           int64      `json:"id"`
	AccountID    *int64     `json:"account_id"`
	ContactID    *int64     `json:"contact_id"`
	DealID       *int64     `json:"deal_id"`
	ActivityType string     `json:"activity_type"`
	Subject      string     `json:"subject"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Onboarding struct {
	ID            int64            `json:"id"`
	AccountID     *int64           `json:"account_id"`
	CustomerName  string           `json:"customer_name"`
	CustomerEmail string           `json:"customer_email"`
	Status        string           `json:"status"`
	StartedAt     time.Time        `json:"started_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
	Steps         []OnboardingStep `json:"steps"`
}

type OnboardingStep struct {
	ID          int64      `json:"id"`
	Position    int        `json:"position"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
}

func AccountToDataModel(a *Account) *crmDatamodel.Account {
	return &crmDatamodel.Account{
		ID:        a.ID,
		Name:      a.Name,
		Industry:  a.Industry,
		Website:   a.Website,
		Phone:     a.Phone,
		Status:    a.Status,
		OwnerID:   a.OwnerID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func AccountFromDataModel(m *crmDatamodel.Account) *Account {
	return &Account{
		ID:        m.ID,
		Name:      m.Name,
		Industry:  m.Industry,
		Website:   m.Website,
		Phone:     m.Phone,
		Status:    m.Status,
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ContactToDataModel(c *Contact) *crmDatamodel.Contact {
	return &crmDatamodel.Contact{
		ID:        c.ID,
		AccountID: c.AccountID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Title:     c.Title,
		IsPrimary: c.IsPrimary,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func ContactFromDataModel(m *crmDatamodel.Contact) *Contact {
	return &Contact{
		ID:        m.ID,
		AccountID: m.AccountID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Phone:     m.Phone,
		Title:     m.Title,
		IsPrimary: m.IsPrimary,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func DealToDataModel(d *Deal) *crmDatamodel.Deal {
	return &crmDatamodel.Deal{
		ID:                d.ID,
		AccountID:         d.AccountID,
		ContactID:         d.ContactID,
		Title:             d.Title,
		Stage:             d.Stage,
		Amount:            d.Amount,
		Probability:       d.Probability,
		ExpectedCloseDate: d.ExpectedCloseDate,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func DealFromDataModel(m *crmDatamodel.Deal) *Deal {
	return &Deal{
		ID:                m.ID,
		AccountID:         m.AccountID,
		ContactID:         m.ContactID,
		Title:             m.Title,
		Stage:             m.Stage,
		Amount:            m.Amount,
		Probability:       m.Probability,
		ExpectedCloseDate: m.ExpectedCloseDate,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func ActivityToDataModel(a *Activity) *crmDatamodel.Activity {
	return &crmDatamodel.Activity{
		ID:           a.ID,
		AccountID:    a.AccountID,
		ContactID:    a.ContactID,
		DealID:       a.DealID,
		ActivityType: a.ActivityType,
		Subject:      a.Subject,
		Description:  a.Description,
		DueDate:      a.DueDate,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func ActivityFromDataModel(m *crmDatamodel.Activity) *Activity {
	return &Activity{
		ID:           m.ID,
		AccountID:    m.AccountID,
		ContactID:    m.ContactID,
		DealID:       m.DealID,
		ActivityType: m.ActivityType,
		Subject:      m.Subject,
		Description:  m.Description,
		DueDate:      m.DueDate,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// OnboardingFromDataModel keeps the steps in the order the repository loaded
// them, which is by position.
func OnboardingFromDataModel(m *crmDatamodel.CustomerOnboarding) *Onboarding {
	o := &Onboarding{
		ID:            m.ID,
		AccountID:     m.AccountID,
		CustomerName:  m.CustomerName,
		CustomerEmail: m.CustomerEmail,
		Status:        m.Status,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
		Steps:         make([]OnboardingStep, 0, len(m.Steps)),
	}
	for _, s := range m.Steps {
		o.Steps = append(o.Steps, OnboardingStep{
			ID:          s.ID,
			Position:    s.Position,
			Title:       s.Title,
			Status:      s.Status,
			CompletedAt: s.CompletedAt,
		})
	}
	return o
}
