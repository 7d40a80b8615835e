package crm

import "time"

type Account struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Industry  string    `gorm:"column:industry"`
	Website   string    `gorm:"column:website"`
	Phone     string    `gorm:"column:phone"`
	Status    string    `gorm:"column:status"`
	OwnerID   *int64    `gorm:"column:owner_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string { return "crm_accounts" }

type Contact struct {
	ID        int64     `gorm:"primaryKey"`
	AccountID *int64    `gorm:"column:account_id;index"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name"`
	Email     string    `gorm:"column:email;index"`
	Phone     string    `gorm:"column:phone"`
	Title     string    `gorm:"column:title"`
	IsPrimary bool      `gorm:"column:is_primary;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Contact) TableName() string { return "crm_contacts" }

type Deal struct {
	ID                int64      `gorm:"primaryKey"`
	AccountID         *int64     `gorm:"column:account_id;index"`
	ContactID         *int64     `gorm:"column:contact_id;index"`
	Title             string     `gorm:"column:title;not null"`
	Stage             string     `gorm:"column:stage;not null"`
	Amount            float64    `gorm:"column:amount"`
	Probability       int        `gorm:"column:probability;not null"`
	ExpectedCloseDate *time.Time `gorm:"column:expected_close_date"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Deal) TableName() string { return "crm_deals" }

type Activity struct {
	ID           int64      `gorm:"primaryKey"`
	AccountID    *int64     `gorm:"column:account_id;index"`
	ContactID    *int64     `gorm:"column:contact_id;index"`
	DealID       *int64     `gorm:"column:deal_id;index"`
	ActivityType string     `gorm:"column:activity_type;not null"`
	Subject      string     `gorm:"column:subject;not null"`
	Description  string     `gorm:"column:description"`
	DueDate      *time.Time `gorm:"column:due_date"`
	Status       string     `gorm:"column:status;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Activity) TableName() string { return "crm_activities" }

type CustomerOnboarding struct {
	ID            int64            `gorm:"primaryKey"`
	AccountID     *int64           `gorm:"column:account_id;index"`
	CustomerName  string           `gorm:"column:customer_name;not null"`
	CustomerEmail string           `gorm:"column:customer_email"`
	Status        string           `gorm:"column:status;not null"`
	StartedAt     time.Time        `gorm:"column:started_at"`
	CompletedAt   *time.Time       `gorm:"column:completed_at"`
	Steps         []OnboardingStep `gorm:"foreignKey:OnboardingID"`
}

func (CustomerOnboarding) TableName() string { return "customer_onboarding" }

type OnboardingStep struct {
	ID           int64      `gorm:"primaryKey"`
	OnboardingID int64      `gorm:"column:onboarding_id;index;not null"`
	Position     int        `gorm:"column:position;not null"`
	Title        string     `gorm:"column:title;not null"`
	Status       string     `gorm:"column:status;not null"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
}

func (OnboardingStep) TableName() string { return "onboarding_steps" }
