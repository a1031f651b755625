package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dateLayout        = "2006-01-02"
	searchLimit       = 10
	minSearchLength   = 2
	msgFullNameNeeded = "Full name is required"
	msgUsernameNeeded = "Username is required"
	msgUsernameTaken  = "Username is already taken"
	msgBadDateOfBirth = "Date of birth must use YYYY-MM-DD"
)

var (
	// ErrProfileNotFound indicates no profile exists for the requested username or id.
	ErrProfileNotFound = errors.New("profile: not found")

	errMissingDatabase = errors.New("profile: database handle is required")
	noOpLogger         = zap.NewNop()
)

// MetadataSync mirrors profile edits into the externally owned authentication
// identity. Failures are tolerated: the profile write remains authoritative.
type MetadataSync interface {
	UpdateMetadata(ctx context.Context, accountID string, fullName string, dateOfBirth *time.Time) error
}

// ServiceConfig describes the dependencies for the profile service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
	Metadata MetadataSync
}

// Service resolves, provisions, and persists profiles.
type Service struct {
	db       *gorm.DB
	clock    func() time.Time
	logger   *zap.Logger
	metadata MetadataSync
	validate *validator.Validate
}

// NewService constructs the profile service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:       cfg.Database,
		clock:    clock,
		logger:   logger,
		metadata: cfg.Metadata,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// PublicView is the profile projection returned to viewers, combining stored
// columns with derived fields.
type PublicView struct {
	ID                   string     `json:"id"`
	Username             string     `json:"username"`
	FullName             string     `json:"full_name"`
	Gender               string     `json:"gender"`
	DateOfBirth          *time.Time `json:"date_of_birth"`
	State                string     `json:"state"`
	Tags                 []string   `json:"tags"`
	Bio                  string     `json:"bio"`
	ProfileImageURL      string     `json:"profile_image_url"`
	Endorsements         int64      `json:"endorsements"`
	CreatedAt            time.Time  `json:"created_at"`
	Age                  *int       `json:"age"`
	DaysSinceJoining     int        `json:"daysSinceJoining"`
	CompletionPercentage int        `json:"completionPercentage"`
}

// LookupResult pairs the public view with the viewer relationship.
type LookupResult struct {
	Profile      PublicView
	IsOwnProfile bool
}

// publicProfileRow scans rows from the public_profiles view, which carries a
// precomputed completion percentage alongside the public columns.
type publicProfileRow struct {
	ID                   string     `gorm:"column:id"`
	Username             string     `gorm:"column:username"`
	FullName             string     `gorm:"column:full_name"`
	Gender               string     `gorm:"column:gender"`
	DateOfBirth          *time.Time `gorm:"column:date_of_birth"`
	State                string     `gorm:"column:state"`
	Tags                 string     `gorm:"column:tags"`
	Bio                  string     `gorm:"column:bio"`
	ProfileImageURL      string     `gorm:"column:profile_image_url"`
	Endorsements         int64      `gorm:"column:endorsements"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	CompletionPercentage *int       `gorm:"column:completion_percentage"`
}

// Lookup resolves a username to its public view. The username is lowercased
// before querying; the read goes through the public_profiles view first and
// falls back to the raw table when the view is unavailable.
func (s *Service) Lookup(ctx context.Context, username string, viewerID string) (LookupResult, error) {
	requested := strings.ToLower(strings.TrimSpace(username))
	if requested == "" {
		return LookupResult{}, ErrProfileNotFound
	}

	var row publicProfileRow
	err := s.db.WithContext(ctx).
		Table("public_profiles").
		Where("username = ?", requested).
		Take(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("public profile view read failed, falling back to table",
				zap.String("username", requested), zap.Error(err))
		}
		var record Profile
		fallbackErr := s.db.WithContext(ctx).
			Where("username = ?", requested).
			Take(&record).Error
		if errors.Is(fallbackErr, gorm.ErrRecordNotFound) {
			return LookupResult{}, ErrProfileNotFound
		}
		if fallbackErr != nil {
			s.logger.Error("profile lookup failed", zap.String("username", requested), zap.Error(fallbackErr))
			return LookupResult{}, fallbackErr
		}
		row = publicProfileRow{
			ID:              record.ID,
			Username:        record.Username,
			FullName:        record.FullName,
			Gender:          record.Gender,
			DateOfBirth:     record.DateOfBirth,
			State:           record.State,
			Tags:            record.Tags,
			Bio:             record.Bio,
			ProfileImageURL: record.ProfileImageURL,
			Endorsements:    record.Endorsements,
			CreatedAt:       record.CreatedAt,
		}
	}

	if strings.TrimSpace(row.Username) == "" {
		return LookupResult{}, ErrProfileNotFound
	}

	now := s.clock().UTC()
	view := PublicView{
		ID:               row.ID,
		Username:         row.Username,
		FullName:         row.FullName,
		Gender:           row.Gender,
		DateOfBirth:      row.DateOfBirth,
		State:            row.State,
		Tags:             SplitTags(row.Tags),
		Bio:              row.Bio,
		ProfileImageURL:  row.ProfileImageURL,
		Endorsements:     row.Endorsements,
		CreatedAt:        row.CreatedAt,
		DaysSinceJoining: DaysSince(row.CreatedAt, now),
	}
	if row.DateOfBirth != nil {
		years := Age(*row.DateOfBirth, now)
		view.Age = &years
	}
	if row.CompletionPercentage != nil {
		view.CompletionPercentage = *row.CompletionPercentage
	} else {
		view.CompletionPercentage = Completion(&Profile{
			Username:    row.Username,
			FullName:    row.FullName,
			Gender:      row.Gender,
			DateOfBirth: row.DateOfBirth,
			State:       row.State,
			Tags:        row.Tags,
			Bio:         row.Bio,
		})
	}

	return LookupResult{
		Profile:      view,
		IsOwnProfile: viewerID != "" && viewerID == row.ID,
	}, nil
}

// Provision returns the profile for the account, creating an empty one seeded
// with the account's display name when none exists yet.
func (s *Service) Provision(ctx context.Context, accountID string, fullName string) (*Profile, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrProfileNotFound
	}

	var record Profile
	err := s.db.WithContext(ctx).Where("id = ?", accountID).Take(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("profile read failed", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}

	record = Profile{
		ID:       accountID,
		FullName: strings.TrimSpace(fullName),
	}
	if createErr := s.db.WithContext(ctx).Create(&record).Error; createErr != nil {
		s.logger.Error("profile provisioning failed", zap.String("account_id", accountID), zap.Error(createErr))
		return nil, createErr
	}
	return &record, nil
}

// UpdateInput carries the profile edit form fields. DateOfBirth uses the
// YYYY-MM-DD wire format; empty optional fields clear their columns.
type UpdateInput struct {
	FullName    string `validate:"required"`
	Username    string `validate:"required"`
	Gender      string
	DateOfBirth string
	State       string
	Tags        string
	Bio         string
}

// UpdateResult reports a profile edit. FieldErrors carries per-field
// validation messages (the edit did not persist); MetadataSyncErr records a
// non-fatal failure of the secondary account-metadata mirror.
type UpdateResult struct {
	Profile         *Profile
	FieldErrors     map[string]string
	MetadataSyncErr error
}

// Update validates and persists a profile edit keyed by the account id,
// enforcing username uniqueness.
func (s *Service) Update(ctx context.Context, accountID string, input UpdateInput) (UpdateResult, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))

	fieldErrors := map[string]string{}
	if err := s.validate.Struct(input); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return UpdateResult{}, err
		}
		for _, fieldError := range validationErrors {
			switch fieldError.Field() {
			case "FullName":
				fieldErrors["fullName"] = msgFullNameNeeded
			case "Username":
				fieldErrors["username"] = msgUsernameNeeded
			}
		}
	}

	var dateOfBirth *time.Time
	if trimmed := strings.TrimSpace(input.DateOfBirth); trimmed != "" {
		parsed, parseErr := time.Parse(dateLayout, trimmed)
		if parseErr != nil {
			fieldErrors["dateOfBirth"] = msgBadDateOfBirth
		} else {
			dateOfBirth = &parsed
		}
	}

	if len(fieldErrors) > 0 {
		return UpdateResult{FieldErrors: fieldErrors}, nil
	}

	var taken int64
	err := s.db.WithContext(ctx).
		Model(&Profile{}).
		Where("username = ? AND id <> ?", input.Username, accountID).
		Count(&taken).Error
	if err != nil {
		s.logger.Error("username uniqueness check failed", zap.String("username", input.Username), zap.Error(err))
		return UpdateResult{}, err
	}
	if taken > 0 {
		return UpdateResult{FieldErrors: map[string]string{"username": msgUsernameTaken}}, nil
	}

	if err := s.persist(ctx, accountID, input, dateOfBirth); err != nil {
		if isUniqueViolation(err) {
			// Concurrent edit won the username; surface the same field error.
			return UpdateResult{FieldErrors: map[string]string{"username": msgUsernameTaken}}, nil
		}
		s.logger.Error("profile update failed", zap.String("account_id", accountID), zap.Error(err))
		return UpdateResult{}, err
	}

	result := UpdateResult{}
	if s.metadata != nil {
		if syncErr := s.metadata.UpdateMetadata(ctx, accountID, input.FullName, dateOfBirth); syncErr != nil {
			s.logger.Warn("account metadata sync failed",
				zap.String("account_id", accountID), zap.Error(syncErr))
			result.MetadataSyncErr = syncErr
		}
	}

	var record Profile
	if err := s.db.WithContext(ctx).Where("id = ?", accountID).Take(&record).Error; err != nil {
		s.logger.Error("profile reload failed", zap.String("account_id", accountID), zap.Error(err))
		return UpdateResult{}, err
	}
	result.Profile = &record
	return result, nil
}

func (s *Service) persist(ctx context.Context, accountID string, input UpdateInput, dateOfBirth *time.Time) error {
	updates := map[string]interface{}{
		"full_name":     input.FullName,
		"username":      input.Username,
		"gender":        strings.TrimSpace(input.Gender),
		"date_of_birth": dateOfBirth,
		"state":         strings.TrimSpace(input.State),
		"tags":          strings.TrimSpace(input.Tags),
		"bio":           strings.TrimSpace(input.Bio),
		"updated_at":    s.clock().UTC(),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Profile
		err := tx.Where("id = ?", accountID).Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&Profile{
				ID:          accountID,
				Username:    input.Username,
				FullName:    input.FullName,
				Gender:      strings.TrimSpace(input.Gender),
				DateOfBirth: dateOfBirth,
				State:       strings.TrimSpace(input.State),
				Tags:        strings.TrimSpace(input.Tags),
				Bio:         strings.TrimSpace(input.Bio),
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&Profile{}).Where("id = ?", accountID).Updates(updates).Error
	})
}

// IncrementBlogCount bumps the blog counter by one.
func (s *Service) IncrementBlogCount(ctx context.Context, accountID string) error {
	return s.increment(ctx, accountID, "blog_count", 1)
}

// IncrementPlacesExplored bumps the places-explored counter by one.
func (s *Service) IncrementPlacesExplored(ctx context.Context, accountID string) error {
	return s.increment(ctx, accountID, "places_explored", 1)
}

// IncrementEndorsements bumps the cached endorsement counter by one.
func (s *Service) IncrementEndorsements(ctx context.Context, accountID string) error {
	return s.increment(ctx, accountID, "endorsements", 1)
}

// AddActivityPoints adds an arbitrary number of activity points.
func (s *Service) AddActivityPoints(ctx context.Context, accountID string, points int64) error {
	return s.increment(ctx, accountID, "activity_points", points)
}

func (s *Service) increment(ctx context.Context, accountID string, column string, delta int64) error {
	result := s.db.WithContext(ctx).
		Model(&Profile{}).
		Where("id = ?", accountID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if result.Error != nil {
		s.logger.Error("counter increment failed",
			zap.String("account_id", accountID), zap.String("column", column), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// SearchResult is the public identity returned by user search.
type SearchResult struct {
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// Search finds profiles whose username contains the query, excluding the
// viewer. Queries shorter than two characters yield an empty result without
// touching storage.
func (s *Service) Search(ctx context.Context, viewerID string, query string) ([]SearchResult, error) {
	term := strings.ToLower(strings.TrimSpace(query))
	if len(term) < minSearchLength {
		return []SearchResult{}, nil
	}

	results := []SearchResult{}
	err := s.db.WithContext(ctx).
		Model(&Profile{}).
		Select("username, full_name, profile_image_url").
		Where("username LIKE ? AND username <> '' AND id <> ?", "%"+term+"%", viewerID).
		Order("username").
		Limit(searchLimit).
		Scan(&results).Error
	if err != nil {
		s.logger.Error("user search failed", zap.String("query", term), zap.Error(err))
		return nil, err
	}
	return results, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

// Get returns the stored profile for the account id.
func (s *Service) Get(ctx context.Context, accountID string) (*Profile, error) {
	var record Profile
	err := s.db.WithContext(ctx).Where("id = ?", accountID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile read: %w", err)
	}
	return &record, nil
}
