package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"taskspace/internal/auth"
	"taskspace/internal/handler"
	"taskspace/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository stubs the user store
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func setupAuthTest() (*gin.Engine, *MockUserRepository, *auth.Tokens) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	users := new(MockUserRepository)
	tokens := auth.NewTokens("workspace-secret", 2*time.Hour)
	userHandler := handler.NewUserHandler(users, tokens)

	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	return r, users, tokens
}

func workspaceUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.User{ID: uuid.New(), Email: email, HashedPassword: string(hash), Name: "Dana Ops"}
}

func decodeAuth(t *testing.T, body []byte) handler.AuthResponse {
	t.Helper()
	var response handler.AuthResponse
	require.NoError(t, json.Unmarshal(body, &response))
	return response
}

func TestRegister_IssuesTokenForNewUser(t *testing.T) {
	router, users, tokens := setupAuthTest()

	var created *model.User
	users.On("FindByEmail", mock.Anything, "dana@taskspace.dev").Return(nil, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*model.User) }).
		Return(nil)

	resp := send(router, "POST", "/register", `{"name":"Dana Ops","email":"Dana@Taskspace.dev","password":"s3cret-pass"}`)

	require.Equal(t, http.StatusCreated, resp.Code)
	response := decodeAuth(t, resp.Body.Bytes())

	require.NotNil(t, created)
	assert.Equal(t, "dana@taskspace.dev", created.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.HashedPassword), []byte("s3cret-pass")))
	assert.Equal(t, created.ID.String(), response.User.ID)

	subject, err := tokens.Parse(response.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), subject)
	users.AssertExpectations(t)
}

func TestRegister_EmailTaken(t *testing.T) {
	router, users, _ := setupAuthTest()
	users.On("FindByEmail", mock.Anything, "dana@taskspace.dev").
		Return(workspaceUser(t, "dana@taskspace.dev", "s3cret-pass"), nil)

	resp := send(router, "POST", "/register", `{"name":"Dana Ops","email":"dana@taskspace.dev","password":"s3cret-pass"}`)

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.JSONEq(t, `{"error":"User with this email already exists"}`, resp.Body.String())
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_StoreFailure(t *testing.T) {
	router, users, _ := setupAuthTest()
	users.On("FindByEmail", mock.Anything, "dana@taskspace.dev").Return(nil, errors.New("connection reset"))

	resp := send(router, "POST", "/register", `{"name":"Dana Ops","email":"dana@taskspace.dev","password":"s3cret-pass"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestRegister_InvalidInput(t *testing.T) {
	router, users, _ := setupAuthTest()

	resp := send(router, "POST", "/register", `{"email":"not-an-email"}`)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestLogin_TokenIdentifiesMember(t *testing.T) {
	router, users, tokens := setupAuthTest()
	member := workspaceUser(t, "dana@taskspace.dev", "s3cret-pass")
	users.On("FindByEmail", mock.Anything, "dana@taskspace.dev").Return(member, nil)

	resp := send(router, "POST", "/login", `{"email":"DANA@taskspace.dev","password":"s3cret-pass"}`)

	require.Equal(t, http.StatusOK, resp.Code)
	response := decodeAuth(t, resp.Body.Bytes())
	assert.Equal(t, member.ID.String(), response.User.ID)

	subject, err := tokens.Parse(response.Token)
	require.NoError(t, err)
	assert.Equal(t, member.ID.String(), subject)
}

func TestLogin_Rejected(t *testing.T) {
	tests := []struct {
		name string
		user *model.User
		body string
	}{
		{"wrong password", workspaceUser(t, "dana@taskspace.dev", "s3cret-pass"), `{"email":"dana@taskspace.dev","password":"guess"}`},
		{"unknown email", nil, `{"email":"dana@taskspace.dev","password":"s3cret-pass"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, users, _ := setupAuthTest()
			if tt.user == nil {
				users.On("FindByEmail", mock.Anything, "dana@taskspace.dev").Return(nil, nil)
			} else {
				users.On("FindByEmail", mock.Anything, "dana@taskspace.dev").Return(tt.user, nil)
			}

			resp := send(router, "POST", "/login", tt.body)

			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.JSONEq(t, `{"error":"Invalid credentials"}`, resp.Body.String())
		})
	}
}
