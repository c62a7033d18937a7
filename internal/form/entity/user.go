package entity

import "time"

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 订阅套餐
const (
	PlanFree    = "free"
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// ValidPlan 是否为已知套餐
func ValidPlan(plan string) bool {
	return plan == PlanFree || plan == PlanBasic || plan == PlanPremium
}

// User 用户
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	Email        string     `json:"email" gorm:"size:256;not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	Name         string     `json:"name" gorm:"size:128;not null"`
	Role         string     `json:"role" gorm:"size:16;not null;default:'user'"`
	Plan         string     `json:"plan" gorm:"size:16;not null;default:'free'"`
	Status       string     `json:"status" gorm:"size:16;not null;default:'active'"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
