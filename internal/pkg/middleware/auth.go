package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/token"
)

// ContextKey é o tipo da chave usada para armazenar as claims do usuário no
// contexto. Usamos um tipo próprio para garantir que esta chave seja única e
// não haja conflito com outras chaves string.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims representa os dados do usuário extraídos do token JWT,
// que serão anexados ao contexto da requisição.
type UserClaims struct {
	UserID string
	Email  string
	Role   domain.UserRole
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// UserFinder resolve o ID contido no token para um usuário persistido.
// Um token assinado para uma conta que deixou de existir não vale nada.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
}

// writeAuthError envia a resposta de erro padronizada em JSON (401/403).
func writeAuthError(w http.ResponseWriter, err apperror.AppError) {
	status, category, message := apperror.MapToHTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// NewAuthMiddleware cria uma função de middleware que valida um JWT, confirma
// que o usuário ainda existe e anexa as claims (UserID, Email e Role) ao
// contexto da requisição. A checagem é stateless: não há sessão no servidor
// nem lista de revogação, o token vale até a expiração natural.
func NewAuthMiddleware(tokenSvc TokenService, users UserFinder) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Extrair o Token do Header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, apperror.NewUnauthorizedError("Authorization token missing or malformed"))
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			// 2. Validar o Token (assinatura e expiração)
			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				writeAuthError(w, apperror.NewUnauthorizedError("Invalid or expired token"))
				return
			}

			// 3. Confirmar que a conta ainda existe no banco
			if _, err := users.FindByID(r.Context(), claims.UserID); err != nil {
				writeAuthError(w, apperror.NewUnauthorizedError("Invalid or expired token"))
				return
			}

			// 4. Anexar Claims ao Contexto
			userClaims := UserClaims{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   domain.UserRole(claims.Role),
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, userClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// PermissionMiddleware verifica se a role do usuário autenticado está na lista
// de roles permitidas para o recurso. É um predicado puro sobre o contexto:
// deve ser encadeado DEPOIS do NewAuthMiddleware.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				// O AuthMiddleware não foi executado ou falhou em anexar as claims.
				writeAuthError(w, apperror.NewUnauthorizedError("Authorization required"))
				return
			}

			for _, requiredRole := range requiredRoles {
				if claims.Role == requiredRole {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthError(w, apperror.NewForbiddenError("Access denied. Insufficient permissions"))
		}
	}
}
