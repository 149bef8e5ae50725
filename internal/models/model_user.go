package models

import "time"

// User is a registered account that owns subscriptions. Passwords are stored
// as bcrypt hashes only; WebhookURL and ReceiveEmails control which delivery
// channels apply when a subscription of this user fires.
type User struct {
	ID            string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Username      string    `gorm:"column:username;type:varchar(150);not null;uniqueIndex" json:"username"`
	PasswordHash  string    `gorm:"column:password_hash;type:varchar(128);not null" json:"-"`
	FirstName     string    `gorm:"column:first_name;type:varchar(150)" json:"first_name"`
	LastName      string    `gorm:"column:last_name;type:varchar(150)" json:"last_name"`
	Email         string    `gorm:"column:email;type:varchar(254)" json:"email"`
	WebhookURL    string    `gorm:"column:webhook_url;type:varchar(255)" json:"webhook_url"`
	ReceiveEmails bool      `gorm:"column:receive_emails;not null;default:true" json:"receive_emails"`
	IsAdmin       bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
