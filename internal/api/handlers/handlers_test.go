package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/codevhq/codev/internal/api/handlers"
	"github.com/codevhq/codev/internal/api/middleware"
	"github.com/codevhq/codev/internal/crypto"
	"github.com/codevhq/codev/internal/database"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	jwtManager, err := crypto.NewJWTManager("test-secret")
	require.NoError(t, err)
	blacklist := crypto.NewTokenBlacklist(time.Hour)

	userHandler := handlers.NewUserHandler(db.DB, jwtManager, blacklist)
	projectHandler := handlers.NewProjectHandler(db.DB)

	router := gin.New()
	users := router.Group("/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)

	usersProtected := users.Group("")
	usersProtected.Use(middleware.AuthMiddleware(jwtManager, blacklist))
	usersProtected.POST("/logout", userHandler.Logout)
	usersProtected.GET("/profile", userHandler.GetProfile)
	usersProtected.GET("/all", userHandler.ListUsers)

	projects := router.Group("/projects")
	projects.Use(middleware.AuthMiddleware(jwtManager, blacklist))
	projects.POST("/create", projectHandler.CreateProject)
	projects.GET("/all", projectHandler.ListProjects)
	projects.GET("/:id", projectHandler.GetProject)
	projects.POST("/add-user", projectHandler.AddUser)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func registerUser(t *testing.T, router *gin.Engine, email string) (userID, token string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/users/register", "", map[string]string{
		"email":    email,
		"password": "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp handlers.AuthResponse
	decodeBody(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.User.ID, resp.Token
}

func TestRegisterAndLogin(t *testing.T) {
	router := newTestRouter(t)
	userID, _ := registerUser(t, router, "alice@example.com")
	require.NotEmpty(t, userID)

	w := doJSON(t, router, http.MethodPost, "/users/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.AuthResponse
	decodeBody(t, w, &resp)
	require.Equal(t, userID, resp.User.ID)
	require.NotEmpty(t, resp.Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/users/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/users/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	router := newTestRouter(t)
	_, token := registerUser(t, router, "alice@example.com")

	w := doJSON(t, router, http.MethodGet, "/users/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/users/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The same token no longer works.
	w = doJSON(t, router, http.MethodGet, "/users/profile", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/projects/all", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/projects/all", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectLifecycle(t *testing.T) {
	router := newTestRouter(t)
	aliceID, aliceToken := registerUser(t, router, "alice@example.com")
	bobID, bobToken := registerUser(t, router, "bob@example.com")

	// Alice creates a project.
	w := doJSON(t, router, http.MethodPost, "/projects/create", aliceToken, map[string]string{"name": "demo"})
	require.Equal(t, http.StatusCreated, w.Code)

	var createResp struct {
		Project handlers.ProjectResponse `json:"project"`
	}
	decodeBody(t, w, &createResp)
	require.Equal(t, aliceID, createResp.Project.OwnerID)
	projectID := createResp.Project.ID

	// Bob is not a member yet.
	w = doJSON(t, router, http.MethodGet, "/projects/"+projectID, bobToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/projects/all", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Projects []handlers.ProjectResponse `json:"projects"`
	}
	decodeBody(t, w, &listResp)
	require.Empty(t, listResp.Projects)

	// Alice adds Bob.
	w = doJSON(t, router, http.MethodPost, "/projects/add-user", aliceToken, map[string]string{
		"projectId": projectID,
		"userId":    bobID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Bob can now see the project and its members.
	w = doJSON(t, router, http.MethodGet, "/projects/"+projectID, bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var getResp struct {
		Project handlers.ProjectResponse `json:"project"`
		Users   []handlers.UserResponse  `json:"users"`
	}
	decodeBody(t, w, &getResp)
	require.Equal(t, projectID, getResp.Project.ID)
	require.Len(t, getResp.Users, 2)

	w = doJSON(t, router, http.MethodGet, "/projects/all", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &listResp)
	require.Len(t, listResp.Projects, 1)
}

func TestAddUserRequiresMembership(t *testing.T) {
	router := newTestRouter(t)
	_, aliceToken := registerUser(t, router, "alice@example.com")
	bobID, bobToken := registerUser(t, router, "bob@example.com")
	carolID, _ := registerUser(t, router, "carol@example.com")

	w := doJSON(t, router, http.MethodPost, "/projects/create", aliceToken, map[string]string{"name": "demo"})
	require.Equal(t, http.StatusCreated, w.Code)
	var createResp struct {
		Project handlers.ProjectResponse `json:"project"`
	}
	decodeBody(t, w, &createResp)

	// Bob is not a member, so he cannot add Carol.
	w = doJSON(t, router, http.MethodPost, "/projects/add-user", bobToken, map[string]string{
		"projectId": createResp.Project.ID,
		"userId":    carolID,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Adding an unknown user fails.
	w = doJSON(t, router, http.MethodPost, "/projects/add-user", aliceToken, map[string]string{
		"projectId": createResp.Project.ID,
		"userId":    "nope",
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	// Owner adds Bob.
	w = doJSON(t, router, http.MethodPost, "/projects/add-user", aliceToken, map[string]string{
		"projectId": createResp.Project.ID,
		"userId":    bobID,
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestListUsersExcludesCaller(t *testing.T) {
	router := newTestRouter(t)
	_, aliceToken := registerUser(t, router, "alice@example.com")
	registerUser(t, router, "bob@example.com")

	w := doJSON(t, router, http.MethodGet, "/users/all", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Users []handlers.UserResponse `json:"users"`
	}
	decodeBody(t, w, &resp)
	require.Len(t, resp.Users, 1)
	require.Equal(t, "bob@example.com", resp.Users[0].Email)
}
