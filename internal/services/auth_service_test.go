package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Organization{}, &models.User{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewAuthService(repository.NewUserRepository(db), repository.NewOrganizationRepository(db)), db
}

func TestSignup_FoundsOrganizationWithSuperadmin(t *testing.T) {
	service, db := setupAuthService(t)

	user, err := service.Signup(SignupInput{
		Email:            "Founder@Example.com",
		Name:             "Founder",
		Password:         "supersecret",
		OrganizationName: "Acme",
	})
	require.NoError(t, err)

	assert.Equal(t, "founder@example.com", user.Email)
	assert.Equal(t, models.RoleSuperadmin, user.Role)
	assert.NotZero(t, user.OrganizationID)

	var org models.Organization
	require.NoError(t, db.First(&org, user.OrganizationID).Error)
	assert.Equal(t, "Acme", org.Name)
	assert.NotEmpty(t, org.InviteCode)

	// The stored hash must verify against the original password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("supersecret")))
}

func TestSignup_JoinByInviteCode(t *testing.T) {
	service, _ := setupAuthService(t)

	founder, err := service.Signup(SignupInput{
		Email:            "founder@example.com",
		Name:             "Founder",
		Password:         "supersecret",
		OrganizationName: "Acme",
	})
	require.NoError(t, err)

	org, err := service.orgRepo.FindByID(founder.OrganizationID)
	require.NoError(t, err)

	member, err := service.Signup(SignupInput{
		Email:      "member@example.com",
		Name:       "Member",
		Password:   "supersecret",
		InviteCode: org.InviteCode,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, member.Role)
	assert.Equal(t, org.ID, member.OrganizationID)
}

func TestSignup_RejectsUnknownInviteCode(t *testing.T) {
	service, _ := setupAuthService(t)

	_, err := service.Signup(SignupInput{
		Email:      "member@example.com",
		Name:       "Member",
		Password:   "supersecret",
		InviteCode: "nope-nope-nope",
	})
	assert.ErrorIs(t, err, ErrInvalidInviteCode)
}

func TestSignup_RejectsDuplicateEmail(t *testing.T) {
	service, _ := setupAuthService(t)

	input := SignupInput{
		Email:            "dup@example.com",
		Name:             "First",
		Password:         "supersecret",
		OrganizationName: "Acme",
	}
	_, err := service.Signup(input)
	require.NoError(t, err)

	_, err = service.Signup(input)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignup_RejectsShortPassword(t *testing.T) {
	service, _ := setupAuthService(t)

	_, err := service.Signup(SignupInput{
		Email:            "short@example.com",
		Name:             "Short",
		Password:         "short",
		OrganizationName: "Acme",
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLogin(t *testing.T) {
	service, _ := setupAuthService(t)

	_, err := service.Signup(SignupInput{
		Email:            "user@example.com",
		Name:             "User",
		Password:         "supersecret",
		OrganizationName: "Acme",
	})
	require.NoError(t, err)

	user, err := service.Login(LoginInput{Email: "user@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)

	_, err = service.Login(LoginInput{Email: "user@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(LoginInput{Email: "nobody@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
