package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"sweetshop/internal/api/sweet"
	"sweetshop/internal/api/user"
	"sweetshop/internal/domain"
	"sweetshop/internal/pkg/cache"
	"sweetshop/internal/pkg/middleware"
)

// RateLimitConfig agrupa os parâmetros do limitador aplicado às rotas de autenticação.
type RateLimitConfig struct {
	MaxRequests int
	Period      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
// Usamos o ServeMux padrão do net/http com padrões de método e path.
func NewRouter(
	sweetHandler *sweet.Handler,
	userHandler *user.Handler,
	tokenSvc middleware.TokenService,
	users middleware.UserFinder,
	cacheClient cache.Client,
	rateLimit RateLimitConfig,
) http.Handler {

	mux := http.NewServeMux()

	// Cadeias de middleware: autenticação resolve o token em identidade;
	// a permissão verifica a role por cima.
	authenticate := middleware.NewAuthMiddleware(tokenSvc, users)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	limited := middleware.RateLimiter(cacheClient, rateLimit.MaxRequests, rateLimit.Period)

	// --- 1. Health Check e Documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.Handler())

	// --- 2. Rotas de Autenticação (públicas, com rate limit por IP) ---
	mux.HandleFunc("POST /auth/register", limited(userHandler.RegisterUserHandler))
	mux.HandleFunc("POST /auth/login", limited(userHandler.LoginUserHandler))

	// --- 3. Rotas públicas da vitrine ---
	mux.HandleFunc("GET /sweets", sweetHandler.ListSweetsHandler)
	mux.HandleFunc("GET /sweets/search", sweetHandler.SearchSweetsHandler)
	mux.HandleFunc("GET /sweets/categories", sweetHandler.CategoriesHandler)

	// --- 4. Rotas de administração do catálogo ---
	mux.HandleFunc("POST /sweets", authenticate(adminOnly(sweetHandler.CreateSweetHandler)))
	mux.HandleFunc("PUT /sweets/{id}", authenticate(adminOnly(sweetHandler.UpdateSweetHandler)))
	mux.HandleFunc("DELETE /sweets/{id}", authenticate(adminOnly(sweetHandler.DeleteSweetHandler)))
	mux.HandleFunc("POST /sweets/{id}/restock", authenticate(adminOnly(sweetHandler.RestockSweetHandler)))

	// --- 5. Compra: qualquer usuário autenticado ---
	mux.HandleFunc("POST /sweets/{id}/purchase", authenticate(sweetHandler.PurchaseSweetHandler))

	return mux
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
