package repository

import (
	"errors"
	"fmt"

	"github.com/teamtaskhq/teamtask-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateOrganization is returned when creating an organization fails inside the signup transaction.
	ErrCreateOrganization = errors.New("user repository: create organization failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateWithOrganization creates an organization and its founding user atomically.
func (r *GormUserRepository) CreateWithOrganization(user *models.User, org *models.Organization) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOrganization, err)
		}

		user.OrganizationID = org.ID

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByRole finds the user holding a role within an organization
func (r *GormUserRepository) FindByRole(organizationID uint64, role models.Role) (*models.User, error) {
	var user models.User
	if err := r.db.Where("organization_id = ? AND role = ?", organizationID, role).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByOrganization lists all users of an organization
func (r *GormUserRepository) ListByOrganization(organizationID uint64) ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("organization_id = ?", organizationID).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRole sets a user's role
func (r *GormUserRepository) UpdateRole(userID uint64, role models.Role) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("role", role).Error
}
