package profile

import (
	contextpkg "context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:profile_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Profile{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, metadata MetadataSync) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Database: db,
		Logger:   zap.NewNop(),
		Metadata: metadata,
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

type recordingMetadataSync struct {
	calls int
	err   error

	lastFullName    string
	lastDateOfBirth *time.Time
}

func (r *recordingMetadataSync) UpdateMetadata(_ contextpkg.Context, _ string, fullName string, dateOfBirth *time.Time) error {
	r.calls++
	r.lastFullName = fullName
	r.lastDateOfBirth = dateOfBirth
	return r.err
}

func TestProvisionCreatesProfileOnFirstAccess(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	created, err := service.Provision(contextpkg.Background(), "account-1", "Alice Doe")
	if err != nil {
		t.Fatalf("unexpected provisioning error: %v", err)
	}
	if created.ID != "account-1" || created.FullName != "Alice Doe" {
		t.Fatalf("unexpected provisioned profile: %+v", created)
	}

	again, err := service.Provision(contextpkg.Background(), "account-1", "Different Name")
	if err != nil {
		t.Fatalf("unexpected error on second provision: %v", err)
	}
	if again.FullName != "Alice Doe" {
		t.Fatalf("expected existing profile to be returned unmodified, got %+v", again)
	}
}

func TestUpdateRequiresFullNameAndUsername(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	result, err := service.Update(contextpkg.Background(), "account-1", UpdateInput{})
	if err != nil {
		t.Fatalf("validation failures must not be hard errors: %v", err)
	}
	if result.FieldErrors["fullName"] == "" {
		t.Fatalf("expected a fullName field error, got %v", result.FieldErrors)
	}
	if result.FieldErrors["username"] == "" {
		t.Fatalf("expected a username field error, got %v", result.FieldErrors)
	}

	var count int64
	if err := db.Model(&Profile{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected nothing persisted, found %d rows", count)
	}
}

func TestUpdatePersistsAndLowercasesUsername(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	result, err := service.Update(contextpkg.Background(), "account-1", UpdateInput{
		FullName:    "Alice Doe",
		Username:    "  Alice  ",
		Gender:      "female",
		DateOfBirth: "1990-05-12",
		State:       "Goa",
		Tags:        "travel,food",
		Bio:         "hello",
	})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if len(result.FieldErrors) != 0 {
		t.Fatalf("unexpected field errors: %v", result.FieldErrors)
	}
	if result.Profile.Username != "alice" {
		t.Fatalf("expected lowercase username, got %q", result.Profile.Username)
	}
	if result.Profile.DateOfBirth == nil || result.Profile.DateOfBirth.Year() != 1990 {
		t.Fatalf("expected parsed date of birth, got %v", result.Profile.DateOfBirth)
	}
	if got := Completion(result.Profile); got != 100 {
		t.Fatalf("expected fully populated profile, completion %d", got)
	}
}

func TestUpdateRejectsTakenUsername(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	if err := db.Create(&Profile{ID: "account-2", Username: "alice"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := service.Update(contextpkg.Background(), "account-1", UpdateInput{
		FullName: "Alice Doe",
		Username: "Alice",
	})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if result.FieldErrors["username"] != "Username is already taken" {
		t.Fatalf("expected taken-username field error, got %v", result.FieldErrors)
	}
}

func TestUpdateAllowsKeepingOwnUsername(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	if err := db.Create(&Profile{ID: "account-1", Username: "alice", FullName: "Alice"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := service.Update(contextpkg.Background(), "account-1", UpdateInput{
		FullName: "Alice Doe",
		Username: "alice",
		Bio:      "updated",
	})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if len(result.FieldErrors) != 0 {
		t.Fatalf("unexpected field errors: %v", result.FieldErrors)
	}
	if result.Profile.Bio != "updated" {
		t.Fatalf("expected bio update to persist, got %q", result.Profile.Bio)
	}
}

func TestUpdateMetadataSyncFailureIsNonFatal(t *testing.T) {
	db := newTestDatabase(t)
	sync := &recordingMetadataSync{err: errors.New("auth provider unavailable")}
	service := newTestService(t, db, sync)

	result, err := service.Update(contextpkg.Background(), "account-1", UpdateInput{
		FullName:    "Alice Doe",
		Username:    "alice",
		DateOfBirth: "1990-05-12",
	})
	if err != nil {
		t.Fatalf("metadata sync failure must not fail the update: %v", err)
	}
	if result.MetadataSyncErr == nil {
		t.Fatalf("expected the sync failure to be reported as non-fatal")
	}
	if result.Profile == nil || result.Profile.Username != "alice" {
		t.Fatalf("expected the primary write to persist, got %+v", result.Profile)
	}
	if sync.calls != 1 || sync.lastFullName != "Alice Doe" {
		t.Fatalf("expected one mirror call with the full name, got %+v", sync)
	}
}

func TestLookupNormalizesUsername(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	if err := db.Create(&Profile{ID: "account-1", Username: "alice", FullName: "Alice"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := service.Lookup(contextpkg.Background(), "ALICE", "")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if result.Profile.Username != "alice" {
		t.Fatalf("expected mixed-case request to resolve, got %+v", result.Profile)
	}
}

func TestLookupRejectsBlankUsername(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	if _, err := service.Lookup(contextpkg.Background(), "   ", ""); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected not-found for blank username, got %v", err)
	}
	if _, err := service.Lookup(contextpkg.Background(), "ghost", ""); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected not-found for unknown username, got %v", err)
	}
}

func TestLookupDerivesFields(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	dateOfBirth := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	record := Profile{
		ID:          "account-1",
		Username:    "alice",
		FullName:    "Alice Doe",
		DateOfBirth: &dateOfBirth,
		Tags:        "travel, food ,",
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := service.Lookup(contextpkg.Background(), "alice", "account-1")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if !result.IsOwnProfile {
		t.Fatalf("expected viewer to own the profile")
	}
	if len(result.Profile.Tags) != 2 || result.Profile.Tags[0] != "travel" {
		t.Fatalf("unexpected tags: %v", result.Profile.Tags)
	}
	if result.Profile.Age == nil {
		t.Fatalf("expected age to be derived")
	}
	// full_name, username, date_of_birth, tags populated out of seven.
	if result.Profile.CompletionPercentage != 57 {
		t.Fatalf("expected completion 57, got %d", result.Profile.CompletionPercentage)
	}
}

func TestLookupPrefersViewCompletionPercentage(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	if err := db.Create(&Profile{ID: "account-1", Username: "alice"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	viewSQL := "CREATE VIEW public_profiles AS SELECT id, username, full_name, gender, date_of_birth, " +
		"state, tags, bio, profile_image_url, endorsements, created_at, 42 AS completion_percentage FROM profiles"
	if err := db.Exec(viewSQL).Error; err != nil {
		t.Fatalf("view creation failed: %v", err)
	}

	result, err := service.Lookup(contextpkg.Background(), "alice", "")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if result.Profile.CompletionPercentage != 42 {
		t.Fatalf("expected precomputed completion from the view, got %d", result.Profile.CompletionPercentage)
	}
}

func TestCounterIncrements(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	if err := db.Create(&Profile{ID: "account-1", Username: "alice"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	ctx := contextpkg.Background()
	if err := service.IncrementBlogCount(ctx, "account-1"); err != nil {
		t.Fatalf("blog increment failed: %v", err)
	}
	if err := service.IncrementPlacesExplored(ctx, "account-1"); err != nil {
		t.Fatalf("places increment failed: %v", err)
	}
	if err := service.IncrementEndorsements(ctx, "account-1"); err != nil {
		t.Fatalf("endorsements increment failed: %v", err)
	}
	if err := service.AddActivityPoints(ctx, "account-1", 25); err != nil {
		t.Fatalf("activity points failed: %v", err)
	}

	var record Profile
	if err := db.Where("id = ?", "account-1").Take(&record).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if record.BlogCount != 1 || record.PlacesExplored != 1 || record.Endorsements != 1 || record.ActivityPoints != 25 {
		t.Fatalf("unexpected counters: %+v", record)
	}

	if err := service.IncrementBlogCount(ctx, "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected not-found for unknown profile, got %v", err)
	}
}

func TestSearchExcludesViewerAndShortQueries(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db, nil)

	seeds := []Profile{
		{ID: "a", Username: "alice"},
		{ID: "b", Username: "alicia"},
		{ID: "c", Username: "malice"},
		{ID: "d", Username: "bob"},
	}
	for i := range seeds {
		if err := db.Create(&seeds[i]).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	ctx := contextpkg.Background()
	short, err := service.Search(ctx, "a", "a")
	if err != nil {
		t.Fatalf("unexpected search error: %v", err)
	}
	if len(short) != 0 {
		t.Fatalf("expected empty result for short query, got %v", short)
	}

	results, err := service.Search(ctx, "a", "ALI")
	if err != nil {
		t.Fatalf("unexpected search error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected two matches excluding the viewer, got %v", results)
	}
	if results[0].Username != "alicia" || results[1].Username != "malice" {
		t.Fatalf("expected username ordering, got %v", results)
	}
}
