package picture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sojourn-labs/sojourn/backend/internal/blob"
	"github.com/sojourn-labs/sojourn/backend/internal/profile"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxUploadBytes   = 5 << 20
	keyPrefix        = "profile-pictures"
	defaultExtension = "jpg"
)

var (
	// ErrMissingFile indicates the request carried no file.
	ErrMissingFile = errors.New("picture: no file provided")
	// ErrNotAnImage indicates a non-image content type.
	ErrNotAnImage = errors.New("picture: file must be an image")
	// ErrTooLarge indicates the file exceeds the size ceiling.
	ErrTooLarge = errors.New("picture: file exceeds the size limit")
	// ErrNoPicture indicates there is no stored picture to delete.
	ErrNoPicture = errors.New("picture: no profile picture to delete")

	errMissingDatabase = errors.New("picture: database handle is required")
	errMissingStore    = errors.New("picture: blob store is required")
	noOpLogger         = zap.NewNop()
)

// ServiceConfig describes the dependencies for the picture service.
type ServiceConfig struct {
	Database *gorm.DB
	Store    blob.Store
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service keeps a profile's image reference consistent with blob storage.
type Service struct {
	db     *gorm.DB
	store  blob.Store
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the picture service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, store: cfg.Store, clock: clock, logger: logger}, nil
}

// Upload carries an inbound file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadResult reports a stored picture. CleanupErr records a non-fatal
// failure to delete the previously stored asset; the upload itself succeeded.
type UploadResult struct {
	URL        string
	CleanupErr error
}

// Upload validates, stores, and references a new profile picture. The old
// asset is deleted best-effort before the new one is stored; if the database
// write fails afterwards, the freshly stored asset is rolled back best-effort.
func (s *Service) Upload(ctx context.Context, accountID string, upload Upload) (UploadResult, error) {
	if upload.Content == nil {
		return UploadResult{}, ErrMissingFile
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return UploadResult{}, ErrNotAnImage
	}
	if upload.Size > maxUploadBytes {
		return UploadResult{}, ErrTooLarge
	}

	previousURL := ""
	var current profile.Profile
	err := s.db.WithContext(ctx).
		Select("id, profile_image_url").
		Where("id = ?", accountID).
		Take(&current).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("profile read failed before upload", zap.String("account_id", accountID), zap.Error(err))
		return UploadResult{}, err
	}
	if err == nil {
		previousURL = current.ProfileImageURL
	}

	result := UploadResult{}
	if previousURL != "" {
		if cleanupErr := s.store.Delete(ctx, previousURL); cleanupErr != nil && !errors.Is(cleanupErr, blob.ErrNotFound) {
			s.logger.Warn("old profile image cleanup failed",
				zap.String("account_id", accountID), zap.String("url", previousURL), zap.Error(cleanupErr))
			result.CleanupErr = cleanupErr
		}
	}

	key := fmt.Sprintf("%s/%s-%d.%s", keyPrefix, accountID, s.clock().UnixMilli(), extensionFor(upload.Filename))
	assetURL, err := s.store.Put(ctx, key, upload.ContentType, io.LimitReader(upload.Content, maxUploadBytes))
	if err != nil {
		s.logger.Error("profile image store failed", zap.String("account_id", accountID), zap.Error(err))
		return UploadResult{}, err
	}

	updateErr := s.db.WithContext(ctx).
		Model(&profile.Profile{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"profile_image_url": assetURL,
			"updated_at":        s.clock().UTC(),
		}).Error
	if updateErr != nil {
		s.logger.Error("profile image reference update failed", zap.String("account_id", accountID), zap.Error(updateErr))
		if rollbackErr := s.store.Delete(ctx, assetURL); rollbackErr != nil {
			s.logger.Error("uploaded asset rollback failed",
				zap.String("account_id", accountID), zap.String("url", assetURL), zap.Error(rollbackErr))
		}
		return UploadResult{}, updateErr
	}

	result.URL = assetURL
	return result, nil
}

// Delete removes the stored picture and clears the profile's image reference.
func (s *Service) Delete(ctx context.Context, accountID string) error {
	var current profile.Profile
	err := s.db.WithContext(ctx).
		Select("id, profile_image_url").
		Where("id = ?", accountID).
		Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoPicture
	}
	if err != nil {
		s.logger.Error("profile read failed before delete", zap.String("account_id", accountID), zap.Error(err))
		return err
	}
	if current.ProfileImageURL == "" {
		return ErrNoPicture
	}

	if err := s.store.Delete(ctx, current.ProfileImageURL); err != nil && !errors.Is(err, blob.ErrNotFound) {
		s.logger.Error("profile image delete failed",
			zap.String("account_id", accountID), zap.String("url", current.ProfileImageURL), zap.Error(err))
		return err
	}

	return s.db.WithContext(ctx).
		Model(&profile.Profile{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"profile_image_url": "",
			"updated_at":        s.clock().UTC(),
		}).Error
}

func extensionFor(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		return defaultExtension
	}
	return strings.ToLower(ext)
}
