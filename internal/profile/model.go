package profile

import (
	"strings"
	"time"
)

// Profile is a user's public-facing record of identity and metadata. The row
// shares its primary key with the owning account and is provisioned lazily on
// first authenticated access. Username uniqueness (case-insensitive, non-empty
// values only) is enforced by a partial unique index created in the database
// package.
type Profile struct {
	ID              string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	Username        string     `gorm:"column:username;size:100;index" json:"username"`
	FullName        string     `gorm:"column:full_name;size:320" json:"full_name"`
	Gender          string     `gorm:"column:gender;size:32" json:"gender"`
	DateOfBirth     *time.Time `gorm:"column:date_of_birth" json:"date_of_birth"`
	State           string     `gorm:"column:state;size:100" json:"state"`
	Tags            string     `gorm:"column:tags;size:1024" json:"tags"`
	Bio             string     `gorm:"column:bio;size:2048" json:"bio"`
	ProfileImageURL string     `gorm:"column:profile_image_url;size:512" json:"profile_image_url"`
	Endorsements    int64      `gorm:"column:endorsements;not null;default:0" json:"endorsements"`
	BlogCount       int64      `gorm:"column:blog_count;not null;default:0" json:"blog_count"`
	PlacesExplored  int64      `gorm:"column:places_explored;not null;default:0" json:"places_explored"`
	ActivityPoints  int64      `gorm:"column:activity_points;not null;default:0" json:"activity_points"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName exposes the table backing profiles.
func (Profile) TableName() string {
	return "profiles"
}

// SplitTags expands the comma-joined tags column into a trimmed slice with
// empty entries dropped. The result is never nil so it serializes as [].
func SplitTags(tags string) []string {
	parts := strings.Split(tags, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
