package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationUsernameUniqueIndex  = "2026-05-12_profiles_username_unique"
	migrationPublicProfilesView   = "2026-05-19_public_profiles_view"
	migrationBackfillEndorsements = "2026-06-02_backfill_endorsement_counts"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationUsernameUniqueIndex, apply: createUsernameUniqueIndex},
		{name: migrationPublicProfilesView, apply: createPublicProfilesView},
		{name: migrationBackfillEndorsements, apply: backfillEndorsementCounts},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Usernames are unique only once claimed. Freshly provisioned profiles carry
// an empty username, and several of those must coexist, so the constraint is
// a partial index rather than a column-level one.
func createUsernameUniqueIndex(db *gorm.DB) error {
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_username_claimed ON profiles(username) WHERE username <> '';",
	).Error
}

// public_profiles exposes the profile columns together with a precomputed
// completion percentage so readers do not have to derive it per request.
func createPublicProfilesView(db *gorm.DB) error {
	const statement = `
CREATE VIEW IF NOT EXISTS public_profiles AS
SELECT
    id,
    username,
    full_name,
    gender,
    date_of_birth,
    state,
    tags,
    bio,
    profile_image_url,
    endorsements,
    blog_count,
    places_explored,
    activity_points,
    created_at,
    updated_at,
    CAST(ROUND((
        (CASE WHEN TRIM(COALESCE(full_name, '')) <> '' THEN 1 ELSE 0 END) +
        (CASE WHEN TRIM(COALESCE(username, '')) <> '' THEN 1 ELSE 0 END) +
        (CASE WHEN TRIM(COALESCE(gender, '')) <> '' THEN 1 ELSE 0 END) +
        (CASE WHEN date_of_birth IS NOT NULL THEN 1 ELSE 0 END) +
        (CASE WHEN TRIM(COALESCE(state, '')) <> '' THEN 1 ELSE 0 END) +
        (CASE WHEN TRIM(COALESCE(tags, '')) <> '' THEN 1 ELSE 0 END) +
        (CASE WHEN TRIM(COALESCE(bio, '')) <> '' THEN 1 ELSE 0 END)
    ) * 100.0 / 7) AS INTEGER) AS completion_percentage
FROM profiles;`
	return db.Exec(statement).Error
}

// Counter columns added after the endorsement table shipped start at zero on
// existing rows. Recount once from the edges so the cached value agrees.
func backfillEndorsementCounts(db *gorm.DB) error {
	return db.Exec(
		"UPDATE profiles SET endorsements = (SELECT COUNT(*) FROM endorsements WHERE endorsements.endorsed_id = profiles.id);",
	).Error
}
