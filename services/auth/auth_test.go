package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loadly/models"
	"loadly/services/api"
	"loadly/services/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginServer(t *testing.T, role string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Password != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": models.AuthResult{
			User:  models.User{ID: "u1", Email: req.Email, Role: role},
			Token: "token-for-" + role,
		}})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": models.AuthResult{
			User:  models.User{ID: "u2", Email: req.Email, Role: req.Role},
			Token: "fresh",
		}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, role string) (*DefaultAuthService, *session.Session) {
	t.Helper()
	srv := loginServer(t, role)
	sess := session.New("sid", session.NewMemoryStore(), nil, nil)
	return NewAuthService(api.NewClient(srv.URL, nil, 5*time.Second, nil, nil), sess, nil), sess
}

func TestLoginStoresGeneralToken(t *testing.T) {
	svc, sess := newService(t, "driver")
	ctx := context.Background()

	res, err := svc.Login(ctx, models.LoginRequest{Email: "d@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "DRIVER", res.User.Role)
	assert.Equal(t, "token-for-driver", sess.Auth.GetToken(ctx))
	assert.Equal(t, "DRIVER", sess.Role(ctx))
	assert.Empty(t, sess.Admin.GetToken(ctx))
}

func TestLoginSurfacesServerMessage(t *testing.T) {
	svc, sess := newService(t, "DRIVER")
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "d@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.False(t, sess.Auth.IsAuthenticated(ctx))
}

func TestAdminLoginRejectsNonAdmin(t *testing.T) {
	svc, sess := newService(t, "DRIVER")
	ctx := context.Background()

	var events int
	sess.Bus.Subscribe(func(session.Event) { events++ })

	_, err := svc.AdminLogin(ctx, models.LoginRequest{Email: "d@example.com", Password: "secret"})
	assert.ErrorIs(t, err, ErrAdminAccessDenied)
	assert.Equal(t, "Access denied. Admin privileges required.", err.Error())
	assert.Empty(t, sess.Admin.GetToken(ctx))
	assert.Empty(t, sess.Auth.GetToken(ctx))
	assert.Empty(t, sess.Role(ctx))
	assert.Zero(t, events)
}

func TestAdminLoginStoresAdminToken(t *testing.T) {
	for _, role := range []string{"ADMIN", "SUPER_ADMIN"} {
		svc, sess := newService(t, role)
		ctx := context.Background()

		_, err := svc.AdminLogin(ctx, models.LoginRequest{Email: "a@example.com", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "token-for-"+role, sess.Admin.GetToken(ctx))
		assert.Empty(t, sess.Auth.GetToken(ctx))
	}
}

func TestRegister(t *testing.T) {
	svc, sess := newService(t, "DRIVER")
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RegisterRequest{Name: "x", Email: "x@example.com", Password: "secret", Role: "admin"})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)

	res, err := svc.Register(ctx, models.RegisterRequest{Name: "x", Email: "x@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, res.User.Role)
	assert.Equal(t, "fresh", sess.Auth.GetToken(ctx))
}

func TestLogoutClearsEverything(t *testing.T) {
	svc, sess := newService(t, "ADMIN")
	ctx := context.Background()
	_, err := svc.AdminLogin(ctx, models.LoginRequest{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, sess.Auth.SetToken(ctx, "general"))

	require.NoError(t, svc.Logout(ctx))
	assert.Empty(t, sess.Admin.GetToken(ctx))
	assert.Empty(t, sess.Auth.GetToken(ctx))
	assert.Empty(t, sess.Role(ctx))
}
