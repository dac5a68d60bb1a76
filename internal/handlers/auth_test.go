package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/lost-and-found-api/internal/auth"
	"github.com/yukikurage/lost-and-found-api/internal/constants"
	"github.com/yukikurage/lost-and-found-api/internal/database/dbtest"
	"github.com/yukikurage/lost-and-found-api/internal/dto"
	apierrors "github.com/yukikurage/lost-and-found-api/internal/errors"
	"github.com/yukikurage/lost-and-found-api/internal/middleware"
	"github.com/yukikurage/lost-and-found-api/internal/models"
	"github.com/yukikurage/lost-and-found-api/internal/repository"
	"github.com/yukikurage/lost-and-found-api/internal/services"
	"github.com/yukikurage/lost-and-found-api/internal/uploads"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerTestEnv struct {
	db          *gorm.DB
	tokens      *auth.Issuer
	files       *uploads.Manager
	authService *services.AuthService
	itemService *services.ItemService
	router      *gin.Engine
}

func setupHandlerTestEnv(t *testing.T) handlerTestEnv {
	t.Helper()

	db := dbtest.New(t)
	tokens := auth.NewIssuer("handler-test-key", time.Hour)
	files, err := uploads.NewManager(uploads.Config{Root: t.TempDir()})
	require.NoError(t, err)

	authService := services.NewAuthService(repository.NewUserRepository(db), tokens)
	itemService := services.NewItemService(repository.NewItemRepository(db), files, nil)

	authHandler := NewAuthHandler(authService)
	itemHandler := NewItemHandler(itemService, files)
	webHandler := NewWebHandler(authService, itemService, files)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))

	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/me", middleware.RequireToken(tokens), authHandler.Me)

	r.GET("/items", middleware.OptionalToken(tokens), itemHandler.ListItems)
	r.POST("/items", middleware.RequireToken(tokens), itemHandler.CreateItem)
	r.GET("/items/:id", middleware.RequireToken(tokens), itemHandler.GetItem)
	r.PUT("/items/:id", middleware.RequireToken(tokens), itemHandler.UpdateItem)
	r.DELETE("/items/:id", middleware.RequireToken(tokens), itemHandler.DeleteItem)

	web := r.Group("/web", middleware.OptionalSession(tokens))
	web.GET("/register", webHandler.RegisterPage)
	web.POST("/register", webHandler.Register)
	web.GET("/login", webHandler.LoginPage)
	web.POST("/login", webHandler.Login)
	web.POST("/logout", webHandler.Logout)
	web.GET("/", webHandler.Index)
	web.GET("/search", webHandler.Index)
	web.GET("/flashes", webHandler.Flashes)
	web.GET("/items/:id", webHandler.ShowItem)
	protected := web.Group("", middleware.RequireSession(tokens))
	protected.GET("/profile", webHandler.Profile)
	protected.GET("/items/new", webHandler.NewItem)
	protected.POST("/items", webHandler.CreateItem)
	protected.POST("/items/:id/status", webHandler.UpdateStatus)
	protected.POST("/items/:id/edit", webHandler.EditItem)
	protected.POST("/items/:id/delete", webHandler.DeleteItem)

	return handlerTestEnv{
		db:          db,
		tokens:      tokens,
		files:       files,
		authService: authService,
		itemService: itemService,
		router:      r,
	}
}

func (env handlerTestEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env handlerTestEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := env.authService.Register(t.Context(), services.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return user
}

func (env handlerTestEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := env.authService.IssueToken(user)
	require.NoError(t, err)
	return token
}

func jsonRequest(t *testing.T, method, path string, payload any, token string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupHandlerTestEnv(t)

	payload := map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "supersecret",
	}
	w := env.serve(jsonRequest(t, http.MethodPost, "/register", payload, ""))
	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "alice", response.Username)
	assert.Equal(t, "alice@example.com", response.Email)
	assert.Equal(t, constants.DefaultRole, response.Role)
	assert.NotZero(t, response.ID)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.serve(jsonRequest(t, http.MethodPost, "/register", payload, ""))
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierrors.ErrCodeConflict, decodeAPIError(t, w).Code)

	payload["username"] = "alice2"
	w = env.serve(jsonRequest(t, http.MethodPost, "/register", payload, ""))
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, services.ErrEmailTaken.Error(), decodeAPIError(t, w).Message)
}

func TestAuthHandler_RegisterInvalid(t *testing.T) {
	env := setupHandlerTestEnv(t)

	tests := []struct {
		name    string
		payload map[string]string
	}{
		{"missing username", map[string]string{"email": "a@example.com", "password": "pw"}},
		{"missing password", map[string]string{"username": "a", "email": "a@example.com"}},
		{"bad email", map[string]string{"username": "a", "email": "nope", "password": "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(jsonRequest(t, http.MethodPost, "/register", tt.payload, ""))
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, apierrors.ErrCodeInvalidInput, decodeAPIError(t, w).Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, env.serve(req).Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user := env.register(t, "existing")

	w := env.serve(jsonRequest(t, http.MethodPost, "/login", map[string]string{
		"username": "existing",
		"password": "password123",
	}, ""))
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, constants.DefaultRole, response.Role)

	claims, err := env.tokens.Validate(response.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "existing", claims.Username)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.register(t, "existing")

	tests := []struct {
		name     string
		payload  map[string]string
		wantCode int
	}{
		{"wrong password", map[string]string{"username": "existing", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "password123"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": "existing"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(jsonRequest(t, http.MethodPost, "/login", tt.payload, ""))
			require.Equal(t, tt.wantCode, w.Code)
			assert.NotContains(t, w.Body.String(), "token\":\"ey")
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	env := setupHandlerTestEnv(t)
	user := env.register(t, "alice")

	w := env.serve(jsonRequest(t, http.MethodGet, "/me", nil, env.tokenFor(t, user)))
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, user.ID, response.ID)

	w = env.serve(jsonRequest(t, http.MethodGet, "/me", nil, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
