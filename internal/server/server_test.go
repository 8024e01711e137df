package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/opsdesk/internal/authorization"
	identitydomain "github.com/smallbiznis/opsdesk/internal/identity/domain"
	inventorydomain "github.com/smallbiznis/opsdesk/internal/inventory/domain"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
	workspacedomain "github.com/smallbiznis/opsdesk/internal/workspace/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	user *identitydomain.User
	err  error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*identitydomain.User, error) {
	_ = ctx
	_ = token
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeWorkspaceService struct {
	activateErr error
	activated   bool
}

func (f *fakeWorkspaceService) Create(ctx context.Context, req workspacedomain.CreateRequest) (workspacedomain.Workspace, error) {
	_ = ctx
	_ = req
	return workspacedomain.Workspace{}, nil
}

func (f *fakeWorkspaceService) Get(ctx context.Context) (workspacedomain.Workspace, error) {
	_ = ctx
	return workspacedomain.Workspace{}, nil
}

func (f *fakeWorkspaceService) UpdateIntegrations(ctx context.Context, req workspacedomain.UpdateIntegrationsRequest) (workspacedomain.Workspace, error) {
	_ = ctx
	_ = req
	return workspacedomain.Workspace{}, nil
}

func (f *fakeWorkspaceService) TestIntegration(ctx context.Context, req workspacedomain.TestIntegrationRequest) (workspacedomain.IntegrationLog, error) {
	_ = ctx
	_ = req
	return workspacedomain.IntegrationLog{}, nil
}

func (f *fakeWorkspaceService) ListIntegrationLogs(ctx context.Context) ([]workspacedomain.IntegrationLog, error) {
	_ = ctx
	return nil, nil
}

func (f *fakeWorkspaceService) Activate(ctx context.Context) (workspacedomain.Workspace, error) {
	_ = ctx
	if f.activateErr != nil {
		return workspacedomain.Workspace{}, f.activateErr
	}
	f.activated = true
	return workspacedomain.Workspace{Status: workspacedomain.StatusActive}, nil
}

type fakeInventoryService struct {
	consumeErr error
}

func (f *fakeInventoryService) CreateItem(ctx context.Context, req inventorydomain.CreateItemRequest) (inventorydomain.Item, error) {
	_ = ctx
	_ = req
	return inventorydomain.Item{}, nil
}

func (f *fakeInventoryService) ListItems(ctx context.Context) ([]inventorydomain.Item, error) {
	_ = ctx
	return nil, nil
}

func (f *fakeInventoryService) Consume(ctx context.Context, req inventorydomain.ConsumeRequest) (inventorydomain.Item, error) {
	_ = ctx
	_ = req
	if f.consumeErr != nil {
		return inventorydomain.Item{}, f.consumeErr
	}
	return inventorydomain.Item{}, nil
}

type fakeAuthzService struct {
	err   error
	calls int
}

func (f *fakeAuthzService) Authorize(ctx context.Context, actor, workspaceID, object, action string) error {
	f.calls++
	_ = ctx
	_ = actor
	_ = workspaceID
	_ = object
	_ = action
	return f.err
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	return router
}

func decodeError(t *testing.T, body *bytes.Buffer) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestAuthRequiredMissingToken(t *testing.T) {
	srv := &Server{verifier: &fakeVerifier{err: identitydomain.ErrInvalidToken}}

	router := newTestRouter()
	router.GET("/api/workspace", srv.AuthRequired(), srv.GetWorkspace)

	req := httptest.NewRequest(http.MethodGet, "/api/workspace", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "unauthorized", decodeError(t, resp.Body).Error.Type)
}

func TestAuthRequiredPopulatesContext(t *testing.T) {
	user := &identitydomain.User{
		ID:          snowflake.ID(7),
		WorkspaceID: snowflake.ID(42),
		Role:        identitydomain.RoleOwner,
	}
	srv := &Server{verifier: &fakeVerifier{user: user}}

	router := newTestRouter()
	router.GET("/whoami", srv.AuthRequired(), func(c *gin.Context) {
		ctx := c.Request.Context()
		workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
		require.True(t, ok)
		userID, ok := workspacectx.UserIDFromContext(ctx)
		require.True(t, ok)
		role, ok := workspacectx.RoleFromContext(ctx)
		require.True(t, ok)

		c.JSON(http.StatusOK, gin.H{
			"workspace_id": workspaceID.String(),
			"user_id":      userID.String(),
			"role":         role,
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "42", body["workspace_id"])
	assert.Equal(t, "7", body["user_id"])
	assert.Equal(t, "owner", body["role"])
}

func TestActivateWorkspaceGateBlocked(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"no channel", workspacedomain.ErrNoChannel},
		{"no offerings", workspacedomain.ErrNoOfferings},
		{"no availability", workspacedomain.ErrNoAvailability},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := &Server{workspaceSvc: &fakeWorkspaceService{activateErr: tc.err}}

			router := newTestRouter()
			router.POST("/api/workspace/activate", srv.ActivateWorkspace)

			req := httptest.NewRequest(http.MethodPost, "/api/workspace/activate", nil)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
			payload := decodeError(t, resp.Body).Error
			assert.Equal(t, "activation_blocked", payload.Type)
			assert.Equal(t, tc.err.Error(), payload.Message)
		})
	}
}

func TestActivateWorkspaceAlreadyActive(t *testing.T) {
	srv := &Server{workspaceSvc: &fakeWorkspaceService{activateErr: workspacedomain.ErrAlreadyActive}}

	router := newTestRouter()
	router.POST("/api/workspace/activate", srv.ActivateWorkspace)

	req := httptest.NewRequest(http.MethodPost, "/api/workspace/activate", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "conflict", decodeError(t, resp.Body).Error.Type)
}

func TestActivateWorkspaceForbidden(t *testing.T) {
	srv := &Server{workspaceSvc: &fakeWorkspaceService{activateErr: workspacedomain.ErrForbidden}}

	router := newTestRouter()
	router.POST("/api/workspace/activate", srv.ActivateWorkspace)

	req := httptest.NewRequest(http.MethodPost, "/api/workspace/activate", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestConsumeInventoryInsufficientStock(t *testing.T) {
	srv := &Server{inventorySvc: &fakeInventoryService{consumeErr: inventorydomain.ErrInsufficientStock}}

	router := newTestRouter()
	router.POST("/api/inventory/:id/consume", srv.ConsumeInventory)

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/123/consume", bytes.NewBufferString(`{"quantity": 5}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)
	payload := decodeError(t, resp.Body).Error
	assert.Equal(t, "conflict", payload.Type)
	assert.Equal(t, "insufficient stock", payload.Message)
}

func TestAuthorizeActionForbidden(t *testing.T) {
	authz := &fakeAuthzService{err: authorization.ErrForbidden}
	srv := &Server{
		verifier: &fakeVerifier{user: &identitydomain.User{
			ID:          snowflake.ID(7),
			WorkspaceID: snowflake.ID(42),
			Role:        identitydomain.RoleStaff,
		}},
		authzSvc:     authz,
		workspaceSvc: &fakeWorkspaceService{},
	}

	router := newTestRouter()
	router.POST("/api/workspace/activate", srv.AuthRequired(), srv.authorizeAction("workspace", "workspace.activate"), srv.ActivateWorkspace)

	req := httptest.NewRequest(http.MethodPost, "/api/workspace/activate", nil)
	req.Header.Set("Authorization", "Bearer staff-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, 1, authz.calls)
}

func TestInvalidJSONBecomesValidationError(t *testing.T) {
	srv := &Server{workspaceSvc: &fakeWorkspaceService{}}

	router := newTestRouter()
	router.POST("/api/workspaces", srv.CreateWorkspace)

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces", bytes.NewBufferString(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeError(t, resp.Body).Error
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_request", payload.Errors[0].Code)
}
