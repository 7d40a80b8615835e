package user

import "time"

type User struct {
	ID           int64      `gorm:"primaryKey"`
	Email        string     `gorm:"column:email;uniqueIndex;not null"`
	Name         string     `gorm:"column:name;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Approved     bool       `gorm:"column:approved;not null"`
	BannedUntil  *time.Time `gorm:"column:banned_until"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	Roles        []UserRole `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "users" }

type UserRole struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_roles_user_role"`
	Role      string    `gorm:"column:role;not null;uniqueIndex:idx_user_roles_user_role"`
	GrantedBy *int64    `gorm:"column:granted_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserRole) TableName() string { return "user_roles" }
