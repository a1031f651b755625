package auth

import "time"

// Account is the authentication identity backing a profile. It owns the
// credential and the signup metadata that profile edits mirror back.
type Account struct {
	ID           string     `gorm:"column:id;primaryKey;size:36"`
	Email        string     `gorm:"column:email;uniqueIndex;size:320;not null"`
	PasswordHash string     `gorm:"column:password_hash;size:72;not null"`
	FullName     string     `gorm:"column:full_name;size:320"`
	DateOfBirth  *time.Time `gorm:"column:date_of_birth"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing accounts.
func (Account) TableName() string {
	return "accounts"
}
