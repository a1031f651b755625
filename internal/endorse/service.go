package endorse

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sojourn-labs/sojourn/backend/internal/profile"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var (
	// ErrMissingEndorsedID indicates the request did not name a target profile.
	ErrMissingEndorsedID = errors.New("endorse: endorsed user id is required")
	// ErrSelfEndorsement indicates the caller tried to endorse themselves.
	ErrSelfEndorsement = errors.New("endorse: cannot endorse yourself")
	// ErrAlreadyEndorsed indicates the directed edge already exists.
	ErrAlreadyEndorsed = errors.New("endorse: already endorsed")
	// ErrProfileNotFound indicates the endorsed profile does not exist.
	ErrProfileNotFound = errors.New("endorse: profile not found")

	errMissingDatabase = errors.New("endorse: database handle is required")
	noOpLogger         = zap.NewNop()
)

// ServiceConfig describes the dependencies for the endorsement service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages the directed endorsement relation between profiles.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the endorsement service.
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
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Create inserts the (endorser, endorsed) edge and bumps the endorsed
// profile's cached count in the same transaction. It returns the endorsed
// profile's display name for response shaping. Duplicate edges surface as
// ErrAlreadyEndorsed via the storage-level unique index rather than a
// pre-insert existence check, so concurrent identical creates cannot both
// succeed.
func (s *Service) Create(ctx context.Context, endorserID string, endorsedID string) (string, error) {
	endorsedID = strings.TrimSpace(endorsedID)
	if endorsedID == "" {
		return "", ErrMissingEndorsedID
	}
	if endorsedID == endorserID {
		return "", ErrSelfEndorsement
	}

	displayName := ""
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target profile.Profile
		err := tx.Select("id, username, full_name").Where("id = ?", endorsedID).Take(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		if err != nil {
			return err
		}
		displayName = target.FullName
		if displayName == "" {
			displayName = target.Username
		}

		edge := Endorsement{
			ID:         uuid.NewString(),
			EndorserID: endorserID,
			EndorsedID: endorsedID,
			CreatedAt:  s.clock().UTC(),
		}
		if err := tx.Create(&edge).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyEndorsed
			}
			return err
		}

		return tx.Model(&profile.Profile{}).
			Where("id = ?", endorsedID).
			UpdateColumn("endorsements", gorm.Expr("endorsements + 1")).Error
	})
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrAlreadyEndorsed) {
			return "", err
		}
		s.logger.Error("endorsement creation failed",
			zap.String("endorser_id", endorserID), zap.String("endorsed_id", endorsedID), zap.Error(err))
		return "", err
	}
	return displayName, nil
}

// Delete removes the (endorser, endorsed) edge. Deletion is idempotent:
// removing an absent edge succeeds without touching the cached count.
func (s *Service) Delete(ctx context.Context, endorserID string, endorsedID string) error {
	endorsedID = strings.TrimSpace(endorsedID)
	if endorsedID == "" {
		return ErrMissingEndorsedID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("endorser_id = ? AND endorsed_id = ?", endorserID, endorsedID).
			Delete(&Endorsement{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&profile.Profile{}).
			Where("id = ?", endorsedID).
			UpdateColumn("endorsements",
				gorm.Expr("CASE WHEN endorsements > 0 THEN endorsements - 1 ELSE 0 END")).Error
	})
	if err != nil {
		s.logger.Error("endorsement deletion failed",
			zap.String("endorser_id", endorserID), zap.String("endorsed_id", endorsedID), zap.Error(err))
		return err
	}
	return nil
}

// Status reports the viewer's relation to a target profile together with the
// target's cached endorsement count and display identity. A missing target
// yields a zero-valued status rather than an error.
type Status struct {
	HasEndorsed bool
	Count       int64
	Username    string
	FullName    string
}

// Status answers whether the viewer endorses the target.
func (s *Service) Status(ctx context.Context, viewerID string, targetID string) (Status, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return Status{}, ErrMissingEndorsedID
	}

	var edges int64
	err := s.db.WithContext(ctx).
		Model(&Endorsement{}).
		Where("endorser_id = ? AND endorsed_id = ?", viewerID, targetID).
		Count(&edges).Error
	if err != nil {
		s.logger.Error("endorsement status read failed", zap.String("target_id", targetID), zap.Error(err))
		return Status{}, err
	}

	status := Status{HasEndorsed: edges > 0}
	var target profile.Profile
	err = s.db.WithContext(ctx).
		Select("username, full_name, endorsements").
		Where("id = ?", targetID).
		Take(&target).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("endorsement status profile read failed", zap.String("target_id", targetID), zap.Error(err))
		return Status{}, err
	}
	if err == nil {
		status.Count = target.Endorsements
		status.Username = target.Username
		status.FullName = target.FullName
	}
	return status, nil
}

// Endorser is the public identity attached to a listed endorsement.
type Endorser struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// ListItem is one endorsement annotated with its endorser's identity.
type ListItem struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Endorser  Endorser  `json:"endorser"`
}

// ListResult is a page of endorsements for a target profile.
type ListResult struct {
	Items   []ListItem
	Total   int64
	Page    int
	Limit   int
	HasMore bool
}

type listRow struct {
	ID              string    `gorm:"column:id"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	EndorserID      string    `gorm:"column:endorser_id"`
	Username        string    `gorm:"column:username"`
	FullName        string    `gorm:"column:full_name"`
	ProfileImageURL string    `gorm:"column:profile_image_url"`
}

// List returns the endorsements received by a target, newest first.
func (s *Service) List(ctx context.Context, targetID string, page int, limit int) (ListResult, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return ListResult{}, ErrMissingEndorsedID
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var total int64
	err := s.db.WithContext(ctx).
		Model(&Endorsement{}).
		Where("endorsed_id = ?", targetID).
		Count(&total).Error
	if err != nil {
		s.logger.Error("endorsement count failed", zap.String("target_id", targetID), zap.Error(err))
		return ListResult{}, err
	}

	rows := []listRow{}
	err = s.db.WithContext(ctx).
		Table("endorsements").
		Select("endorsements.id, endorsements.created_at, endorsements.endorser_id, "+
			"profiles.username, profiles.full_name, profiles.profile_image_url").
		Joins("LEFT JOIN profiles ON profiles.id = endorsements.endorser_id").
		Where("endorsements.endorsed_id = ?", targetID).
		Order("endorsements.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		s.logger.Error("endorsement list failed", zap.String("target_id", targetID), zap.Error(err))
		return ListResult{}, err
	}

	items := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ListItem{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			Endorser: Endorser{
				ID:              row.EndorserID,
				Username:        row.Username,
				FullName:        row.FullName,
				ProfileImageURL: row.ProfileImageURL,
			},
		})
	}

	return ListResult{
		Items:   items,
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasMore: total > int64(page)*int64(limit),
	}, nil
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
