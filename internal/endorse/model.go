package endorse

import "time"

// Endorsement is a directed positive attestation from one profile to another.
// The composite unique index closes the duplicate-create race at the storage
// layer; self-endorsement is rejected in the service.
type Endorsement struct {
	ID         string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	EndorserID string    `gorm:"column:endorser_id;size:36;not null;uniqueIndex:idx_endorsement_pair,priority:1" json:"endorser_id"`
	EndorsedID string    `gorm:"column:endorsed_id;size:36;not null;uniqueIndex:idx_endorsement_pair,priority:2;index" json:"endorsed_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName exposes the table backing endorsements.
func (Endorsement) TableName() string {
	return "endorsements"
}
