package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/middleware"
	"sweetshop/internal/pkg/token"
)

// MockUserFinder é uma implementação mock do resolvedor de usuários.
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func okHandler(claimsOut *middleware.UserClaims) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok && claimsOut != nil {
			*claimsOut = claims
		}
		w.WriteHeader(http.StatusOK)
	}
}

// TestAuthMiddleware_Success testa o fluxo completo: token válido, usuário
// existente, claims anexadas ao contexto.
func TestAuthMiddleware_Success(t *testing.T) {
	tokenSvc := token.NewService("test-secret", time.Hour)
	finder := new(MockUserFinder)

	tokenString, err := tokenSvc.GenerateToken("user-1", "ann@x.com", "admin")
	assert.NoError(t, err)

	finder.On("FindByID", mock.Anything, "user-1").Return(domain.User{ID: "user-1"}, nil)

	var claims middleware.UserClaims
	handler := middleware.NewAuthMiddleware(tokenSvc, finder)(okHandler(&claims))

	req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	finder.AssertExpectations(t)
}

// TestAuthMiddleware_Fail_MissingHeader testa a ausência do header Authorization.
func TestAuthMiddleware_Fail_MissingHeader(t *testing.T) {
	tokenSvc := token.NewService("test-secret", time.Hour)
	handler := middleware.NewAuthMiddleware(tokenSvc, new(MockUserFinder))(okHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authorization token missing or malformed")
}

// TestAuthMiddleware_Fail_InvalidToken testa um token corrompido ou de outra chave.
func TestAuthMiddleware_Fail_InvalidToken(t *testing.T) {
	tokenSvc := token.NewService("test-secret", time.Hour)
	otherSvc := token.NewService("other-secret", time.Hour)

	tokenString, err := otherSvc.GenerateToken("user-1", "ann@x.com", "user")
	assert.NoError(t, err)

	handler := middleware.NewAuthMiddleware(tokenSvc, new(MockUserFinder))(okHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestAuthMiddleware_Fail_UserNoLongerExists testa que um token válido de uma
// conta removida é rejeitado.
func TestAuthMiddleware_Fail_UserNoLongerExists(t *testing.T) {
	tokenSvc := token.NewService("test-secret", time.Hour)
	finder := new(MockUserFinder)

	tokenString, err := tokenSvc.GenerateToken("ghost", "ghost@x.com", "user")
	assert.NoError(t, err)

	finder.On("FindByID", mock.Anything, "ghost").Return(domain.User{}, apperror.NewNotFoundError("User not found"))

	handler := middleware.NewAuthMiddleware(tokenSvc, finder)(okHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	finder.AssertExpectations(t)
}

// TestPermissionMiddleware_Forbidden testa que a role "user" é barrada em rota admin.
func TestPermissionMiddleware_Forbidden(t *testing.T) {
	tokenSvc := token.NewService("test-secret", time.Hour)
	finder := new(MockUserFinder)

	tokenString, err := tokenSvc.GenerateToken("user-1", "ann@x.com", "user")
	assert.NoError(t, err)
	finder.On("FindByID", mock.Anything, "user-1").Return(domain.User{ID: "user-1"}, nil)

	authenticate := middleware.NewAuthMiddleware(tokenSvc, finder)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	handler := authenticate(adminOnly(okHandler(nil)))

	req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestPermissionMiddleware_AdminAllowed testa que a role "admin" passa pela rota admin.
func TestPermissionMiddleware_AdminAllowed(t *testing.T) {
	tokenSvc := token.NewService("test-secret", time.Hour)
	finder := new(MockUserFinder)

	tokenString, err := tokenSvc.GenerateToken("admin-1", "root@x.com", "admin")
	assert.NoError(t, err)
	finder.On("FindByID", mock.Anything, "admin-1").Return(domain.User{ID: "admin-1"}, nil)

	authenticate := middleware.NewAuthMiddleware(tokenSvc, finder)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	handler := authenticate(adminOnly(okHandler(nil)))

	req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestPermissionMiddleware_NoClaims testa a rota protegida sem o middleware de autenticação.
func TestPermissionMiddleware_NoClaims(t *testing.T) {
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	handler := adminOnly(okHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/sweets", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
