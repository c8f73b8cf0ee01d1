package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/teamtaskhq/teamtask-api/internal/dto"
	"github.com/teamtaskhq/teamtask-api/internal/middleware"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/repository"
	"github.com/teamtaskhq/teamtask-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type authTestEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
	)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	handler := NewAuthHandler(services.NewAuthService(userRepo, orgRepo))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("teamtask_session", store))
	r.POST("/api/auth/signup", handler.Signup)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/logout", handler.Logout)
	r.GET("/api/auth/me", middleware.RequireAuth(userRepo), handler.Me)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{db: db, router: r, userRepo: userRepo, orgRepo: orgRepo}
}

func postJSON(t *testing.T, r *gin.Engine, url string, payload interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_SignupFoundsOrganization(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/signup", map[string]string{
		"email":             "founder@example.com",
		"name":              "Founder",
		"password":          "supersecret",
		"organization_name": "Acme",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, models.RoleSuperadmin, response.Role)
	require.NotZero(t, response.OrganizationID)

	org, err := env.orgRepo.FindByID(response.OrganizationID)
	require.NoError(t, err)
	require.Equal(t, "Acme", org.Name)
	require.NotEmpty(t, org.InviteCode)
}

func TestAuthHandler_SignupWithInviteCodeJoinsAsUser(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/signup", map[string]string{
		"email":             "founder@example.com",
		"name":              "Founder",
		"password":          "supersecret",
		"organization_name": "Acme",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var founder dto.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &founder))
	org, err := env.orgRepo.FindByID(founder.OrganizationID)
	require.NoError(t, err)

	w = postJSON(t, env.router, "/api/auth/signup", map[string]string{
		"email":       "member@example.com",
		"name":        "Member",
		"password":    "supersecret",
		"invite_code": org.InviteCode,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var member dto.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &member))
	require.Equal(t, models.RoleUser, member.Role)
	require.Equal(t, org.ID, member.OrganizationID)
}

func TestAuthHandler_SignupDuplicateEmail(t *testing.T) {
	env := setupAuthTestEnv(t)

	payload := map[string]string{
		"email":             "dup@example.com",
		"name":              "First",
		"password":          "supersecret",
		"organization_name": "Acme",
	}
	require.Equal(t, http.StatusCreated, postJSON(t, env.router, "/api/auth/signup", payload, nil).Code)
	require.Equal(t, http.StatusConflict, postJSON(t, env.router, "/api/auth/signup", payload, nil).Code)
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/signup", map[string]string{
		"email":             "user@example.com",
		"name":              "User",
		"password":          "supersecret",
		"organization_name": "Acme",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, env.router, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "wrongpassword",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LoginThenMe(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.router, "/api/auth/signup", map[string]string{
		"email":             "user@example.com",
		"name":              "User",
		"password":          "supersecret",
		"organization_name": "Acme",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, env.router, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "supersecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	env.router.ServeHTTP(me, req)

	require.Equal(t, http.StatusOK, me.Code)

	var response dto.UserResponse
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &response))
	require.Equal(t, "user@example.com", response.Email)
}

func TestAuthHandler_MeWithoutSession(t *testing.T) {
	env := setupAuthTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
