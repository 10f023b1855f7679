// Package users manages blog authors and administrators.
package users

import (
	"database/sql"
	"errors"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// User is an author account. Admins additionally see site-wide analytics.
type User struct {
	ID                  uint   `gorm:"primaryKey"`
	Email               string `gorm:"uniqueIndex"`
	Name                string
	EncryptedPassword   string
	Admin               bool `gorm:"not null;default:false"`
	ResetPasswordToken  sql.NullString
	ResetPasswordSentAt sql.NullTime
	CreatedAt           time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// ErrUserExists is returned when attempting to create a user that already exists.
var ErrUserExists = errors.New("user already exists")

// ErrUserNotFound is returned when a user lookup fails.
var ErrUserNotFound = gorm.ErrRecordNotFound

// FindByEmail retrieves a user by email.
func FindByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID retrieves a user by ID.
func FindByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a regular author account. It returns ErrUserExists if the
// email is already taken.
func Create(db *gorm.DB, email, name, password string) (*User, error) {
	user, err := create(db, email, name, password, false)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAdminUser creates a new admin user with the supplied credentials.
// It returns ErrUserExists if the user already exists.
func CreateAdminUser(db *gorm.DB, email, password string) error {
	_, err := create(db, email, "", password, true)
	return err
}

func create(db *gorm.DB, email, name, password string, admin bool) (*User, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	if _, err := FindByEmail(db, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return nil, err
	}

	newUser := User{
		Email:             email,
		Name:              name,
		EncryptedPassword: string(hashedPassword),
		Admin:             admin,
	}

	logger := slog.Default()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&newUser).Error
	})
	if err != nil {
		return nil, err
	}
	return &newUser, nil
}

// ChangePassword updates a user's password given their email.
func ChangePassword(db *gorm.DB, email, password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	user, err := FindByEmail(db, email)
	if err != nil {
		return err
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(user).Update("encrypted_password", string(hashedPassword)).Error
	})
}

// CountInRange counts users created in [from, to). A zero from disables the
// lower bound. Feeds the new-users comparison on the admin dashboard.
func CountInRange(db *gorm.DB, from, to time.Time) (int64, error) {
	query := db.Model(&User{}).Where("created_at < ?", to)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
