package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/teamtaskhq/teamtask-api/internal/cache"
	"github.com/teamtaskhq/teamtask-api/internal/constants"
	"github.com/teamtaskhq/teamtask-api/internal/dto"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/notify"
	"github.com/teamtaskhq/teamtask-api/internal/orchestrator"
	"github.com/teamtaskhq/teamtask-api/internal/realtime"
	"github.com/teamtaskhq/teamtask-api/internal/repository"
	"github.com/teamtaskhq/teamtask-api/internal/roles"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type noopMailer struct{}

func (noopMailer) Send(notify.EmailPayload) error { return nil }

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db          *gorm.DB
	handler     *TaskHandler
	invalidator *cache.Invalidator
	projects    repository.ProjectRepository
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.Notification{},
	)
	suite.Require().NoError(err)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	taskRepo := repository.NewTaskRepository(suite.db)
	projectRepo := repository.NewProjectRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	notificationRepo := repository.NewNotificationRepository(suite.db)

	suite.projects = projectRepo
	suite.invalidator = cache.NewInvalidator(cache.NewMemoryStore(), log, 0)

	notifier := notify.NewNotifier(notificationRepo, noopMailer{}, userRepo, realtime.NewHub(), log)
	orch := orchestrator.New(taskRepo, projectRepo, userRepo, roles.Default(), notifier, suite.invalidator, log)
	suite.handler = NewTaskHandler(orch, taskRepo, suite.invalidator, log)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskHandlerTestSuite) createTestOrganization(name string) *models.Organization {
	org := &models.Organization{Name: name, InviteCode: name + "_CODE"}
	suite.db.Create(org)
	return org
}

func (suite *TaskHandlerTestSuite) createTestUser(email string, role models.Role, orgID uint64) *models.User {
	user := &models.User{
		Email:          email,
		Name:           email,
		PasswordHash:   "hashedpassword",
		Role:           role,
		OrganizationID: orgID,
	}
	suite.db.Create(user)
	return user
}

func (suite *TaskHandlerTestSuite) createTestProject(title string, managerID, orgID uint64) *models.Project {
	project := &models.Project{
		Title:          title,
		Status:         models.ProjectStatusInProgress,
		ManagerID:      managerID,
		OrganizationID: orgID,
	}
	suite.db.Create(project)
	return project
}

func (suite *TaskHandlerTestSuite) createTestTask(title string, creatorID, orgID uint64, projectID *uint64) *models.Task {
	task := &models.Task{
		Title:          title,
		Status:         models.TaskStatusTodo,
		Priority:       models.TaskPriorityMedium,
		CreatorID:      creatorID,
		OrganizationID: orgID,
		ProjectID:      projectID,
	}
	suite.db.Create(task)
	return task
}

// createAuthContext builds a context the way RequireAuth would leave it.
func (suite *TaskHandlerTestSuite) createAuthContext(method, url string, body []byte, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeySession, orchestrator.Session{
		ActorID:        user.ID,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	})

	return c, w
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	org := suite.createTestOrganization("Test Org")
	user := suite.createTestUser("creator@example.com", models.RoleUser, org.ID)

	body, _ := json.Marshal(map[string]interface{}{
		"title":       "Write onboarding docs",
		"description": "Cover the setup flow",
	})
	c, w := suite.createAuthContext("POST", "/api/tasks", body, user)

	suite.handler.Create(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response dto.TaskResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "Write onboarding docs", response.Title)
	assert.Equal(suite.T(), models.TaskStatusTodo, response.Status)
	assert.Equal(suite.T(), models.TaskPriorityMedium, response.Priority)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_MissingTitle() {
	org := suite.createTestOrganization("Test Org")
	user := suite.createTestUser("creator@example.com", models.RoleUser, org.ID)

	body, _ := json.Marshal(map[string]interface{}{"description": "no title"})
	c, w := suite.createAuthContext("POST", "/api/tasks", body, user)

	suite.handler.Create(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestChangeStatus_LastTaskCompletesProject() {
	org := suite.createTestOrganization("Test Org")
	user := suite.createTestUser("creator@example.com", models.RoleUser, org.ID)
	project := suite.createTestProject("Release", user.ID, org.ID)
	suite.createTestTask("Ship it", user.ID, org.ID, &project.ID)

	body, _ := json.Marshal(map[string]string{"status": "COMPLETED"})
	c, w := suite.createAuthContext("PATCH", "/api/tasks/1/status", body, user)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	suite.handler.ChangeStatus(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), models.TaskStatusCompleted, response.Status)
	assert.NotNil(suite.T(), response.CompletedAt)

	reloaded, err := suite.projects.FindByID(project.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.ProjectStatusCompleted, reloaded.Status)
	assert.True(suite.T(), reloaded.IsCompleted)
}

func (suite *TaskHandlerTestSuite) TestAssignTask_UnrelatedUserForbidden() {
	org := suite.createTestOrganization("Test Org")
	creator := suite.createTestUser("creator@example.com", models.RoleUser, org.ID)
	bystander := suite.createTestUser("bystander@example.com", models.RoleUser, org.ID)
	suite.createTestTask("Locked down", creator.ID, org.ID, nil)

	body, _ := json.Marshal(map[string]interface{}{"assignee_ids": []uint64{bystander.ID}})
	c, w := suite.createAuthContext("PATCH", "/api/tasks/1/assign", body, bystander)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	suite.handler.Assign(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetTask_CrossOrganizationReadsAsMissing() {
	orgA := suite.createTestOrganization("Org A")
	orgB := suite.createTestOrganization("Org B")
	owner := suite.createTestUser("owner@example.com", models.RoleUser, orgA.ID)
	outsider := suite.createTestUser("outsider@example.com", models.RoleAdmin, orgB.ID)
	suite.createTestTask("Private", owner.ID, orgA.ID, nil)

	c, w := suite.createAuthContext("GET", "/api/tasks/1", nil, outsider)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	suite.handler.Get(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_ServesCachedView() {
	org := suite.createTestOrganization("Test Org")
	user := suite.createTestUser("reader@example.com", models.RoleUser, org.ID)

	cached := dto.TaskListResponse{
		Tasks: []dto.TaskResponse{{ID: 999, Title: "cached sentinel"}},
	}
	key := cache.OrgTasksKey(org.ID)
	suite.Require().NoError(suite.invalidator.PutView(context.Background(), key, cached))

	c, w := suite.createAuthContext("GET", "/api/tasks", nil, user)

	suite.handler.List(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().Len(response.Tasks, 1)
	assert.Equal(suite.T(), "cached sentinel", response.Tasks[0].Title)
}

func (suite *TaskHandlerTestSuite) TestListTasks_RepopulatesCacheOnMiss() {
	org := suite.createTestOrganization("Test Org")
	user := suite.createTestUser("reader@example.com", models.RoleUser, org.ID)
	suite.createTestTask("Visible", user.ID, org.ID, nil)

	c, w := suite.createAuthContext("GET", "/api/tasks", nil, user)
	suite.handler.List(c)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var cached dto.TaskListResponse
	fresh, err := suite.invalidator.GetView(context.Background(), cache.OrgTasksKey(org.ID), &cached)
	suite.Require().NoError(err)
	assert.True(suite.T(), fresh)
	suite.Require().Len(cached.Tasks, 1)
	assert.Equal(suite.T(), "Visible", cached.Tasks[0].Title)
}

func (suite *TaskHandlerTestSuite) TestListTasks_FilteredRequestBypassesCache() {
	org := suite.createTestOrganization("Test Org")
	user := suite.createTestUser("reader@example.com", models.RoleUser, org.ID)
	suite.createTestTask("Real row", user.ID, org.ID, nil)

	cached := dto.TaskListResponse{
		Tasks: []dto.TaskResponse{{ID: 999, Title: "cached sentinel"}},
	}
	suite.Require().NoError(suite.invalidator.PutView(context.Background(), cache.OrgTasksKey(org.ID), cached))

	c, w := suite.createAuthContext("GET", "/api/tasks?status=TODO", nil, user)

	suite.handler.List(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().Len(response.Tasks, 1)
	assert.Equal(suite.T(), "Real row", response.Tasks[0].Title)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
