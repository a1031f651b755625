package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	signupDateLayout  = "2006-01-02"
)

var (
	// ErrMissingSignUpFields indicates email, password, or name was absent.
	ErrMissingSignUpFields = errors.New("auth: email, password, and name are required")
	// ErrInvalidDateOfBirth indicates the signup date of birth did not parse.
	ErrInvalidDateOfBirth = errors.New("auth: invalid date of birth")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	// The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrPasswordTooShort indicates the password fails the length policy.
	ErrPasswordTooShort = errors.New("auth: password too short")
	// ErrAccountNotFound indicates no account exists for the id.
	ErrAccountNotFound = errors.New("auth: account not found")

	errMissingDatabase = errors.New("auth: database handle is required")
	noOpLogger         = zap.NewNop()
)

// AccountsConfig describes the dependencies for the account store.
type AccountsConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Accounts manages authentication identities and their credentials.
type Accounts struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewAccounts constructs the account store.
func NewAccounts(cfg AccountsConfig) (*Accounts, error) {
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
	return &Accounts{db: cfg.Database, clock: clock, logger: logger}, nil
}

// SignUpInput carries the signup form fields. DateOfBirth is optional and
// uses the YYYY-MM-DD wire format.
type SignUpInput struct {
	Email       string
	Password    string
	Name        string
	DateOfBirth string
}

// SignUp registers a new account with a bcrypt-hashed credential. Emails are
// stored lowercase and are unique.
func (a *Accounts) SignUp(ctx context.Context, input SignUpInput) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if email == "" || input.Password == "" || name == "" {
		return nil, ErrMissingSignUpFields
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	var dateOfBirth *time.Time
	if trimmed := strings.TrimSpace(input.DateOfBirth); trimmed != "" {
		parsed, err := time.Parse(signupDateLayout, trimmed)
		if err != nil {
			return nil, ErrInvalidDateOfBirth
		}
		dateOfBirth = &parsed
	}

	var existing int64
	if err := a.db.WithContext(ctx).Model(&Account{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		a.logger.Error("account email check failed", zap.Error(err))
		return nil, err
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     name,
		DateOfBirth:  dateOfBirth,
	}
	if err := a.db.WithContext(ctx).Create(&account).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		a.logger.Error("account creation failed", zap.Error(err))
		return nil, err
	}
	return &account, nil
}

// Authenticate verifies an email/password pair and returns the account.
func (a *Accounts) Authenticate(ctx context.Context, email string, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var account Account
	err := a.db.WithContext(ctx).Where("email = ?", email).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		a.logger.Error("account read failed", zap.Error(err))
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &account, nil
}

// GetByID returns the account for the id.
func (a *Accounts) GetByID(ctx context.Context, accountID string) (*Account, error) {
	var account Account
	err := a.db.WithContext(ctx).Where("id = ?", accountID).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdatePassword replaces the account's credential, enforcing the length policy.
func (a *Accounts) UpdatePassword(ctx context.Context, accountID string, password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	result := a.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"password_hash": string(hash),
			"updated_at":    a.clock().UTC(),
		})
	if result.Error != nil {
		a.logger.Error("password update failed", zap.String("account_id", accountID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdateMetadata mirrors profile edits into the account record. Profile
// updates call this best-effort; failures here never fail the profile write.
func (a *Accounts) UpdateMetadata(ctx context.Context, accountID string, fullName string, dateOfBirth *time.Time) error {
	result := a.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"full_name":     strings.TrimSpace(fullName),
			"date_of_birth": dateOfBirth,
			"updated_at":    a.clock().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
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
