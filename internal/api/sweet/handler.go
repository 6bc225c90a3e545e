package sweet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/middleware"
)

// SweetService define o contrato que o Handler espera da camada de Serviço.
type SweetService interface {
	CreateSweet(ctx context.Context, sweet domain.Sweet) (domain.Sweet, error)
	ListSweets(ctx context.Context, page, limit int) (domain.SweetPage, error)
	SearchSweets(ctx context.Context, filter domain.SweetFilter) (domain.SweetPage, error)
	UniqueCategories(ctx context.Context) ([]string, error)
	UpdateSweet(ctx context.Context, id string, update domain.SweetUpdate) (domain.Sweet, error)
	DeleteSweet(ctx context.Context, id string) error
	PurchaseSweet(ctx context.Context, id string, quantity int) (domain.Sweet, error)
	RestockSweet(ctx context.Context, id string, quantity int) (domain.Sweet, error)
}

// CreateSweetRequest é o payload de criação. Os campos numéricos são ponteiros
// para distinguir "ausente" de "zero": todos os quatro campos são obrigatórios.
type CreateSweetRequest struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
}

// QuantityRequest é o payload de compra/reposição.
type QuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// SweetMessageResponse envelopa as respostas de mutação do contrato da API.
type SweetMessageResponse struct {
	Message string       `json:"message"`
	Sweet   domain.Sweet `json:"sweet"`
}

// Handler agrupa todos os métodos de Handler do inventário de doces.
type Handler struct {
	Service SweetService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc SweetService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error("Erro de servidor no inventário.", err)
	} else {
		h.Logger.Debug("Requisição de inventário rejeitada.", map[string]interface{}{"path": r.URL.Path, "status": status, "category": category})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// --- Funções Auxiliares de Query ---

// parsePageParam lê um parâmetro numérico de query; valores ausentes ou
// não-numéricos caem no padrão sem erro (contrato da listagem).
func parsePageParam(r *http.Request, key string, defaultValue int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 1 {
		return defaultValue
	}
	return value
}

// parsePriceParam lê um parâmetro decimal opcional; ausente ou inválido vira nil.
func parsePriceParam(r *http.Request, key string) *float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

// --- Handlers de Inventário ---

// CreateSweetHandler lida com a requisição POST /sweets.
// @Summary Cria um novo doce no catálogo (admin)
// @Tags sweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sweet body CreateSweetRequest true "Dados do doce (name, category, price, quantity)"
// @Success 201 {object} domain.Sweet
// @Failure 400 {object} domain.ErrorResponse "Campos obrigatórios ausentes"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Nome de doce já existente"
// @Router /sweets [post]
func (h *Handler) CreateSweetHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		h.Logger.Debug("Criação de doce solicitada.", map[string]interface{}{"user_id": claims.UserID, "role": claims.Role})
	}

	var req CreateSweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Invalid JSON payload"), http.StatusCreated)
		return
	}

	if req.Name == "" || req.Category == "" || req.Price == nil || req.Quantity == nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("name, category, price and quantity required"), http.StatusCreated)
		return
	}

	newSweet, err := h.Service.CreateSweet(ctx, domain.Sweet{
		Name:     req.Name,
		Category: req.Category,
		Price:    *req.Price,
		Quantity: *req.Quantity,
	})
	h.handleServiceResponse(w, r, newSweet, err, http.StatusCreated)
}

// ListSweetsHandler lida com a requisição GET /sweets.
// @Summary Lista doces com paginação
// @Tags sweets
// @Produce json
// @Param page query int false "Página (padrão 1)"
// @Param limit query int false "Itens por página (padrão 20, máximo 100)"
// @Success 200 {object} domain.SweetPage
// @Router /sweets [get]
func (h *Handler) ListSweetsHandler(w http.ResponseWriter, r *http.Request) {
	page := parsePageParam(r, "page", 1)
	limit := parsePageParam(r, "limit", 20)

	result, err := h.Service.ListSweets(r.Context(), page, limit)
	h.handleServiceResponse(w, r, result, err, http.StatusOK)
}

// SearchSweetsHandler lida com a requisição GET /sweets/search.
// @Summary Busca doces por nome, categoria e faixa de preço
// @Tags sweets
// @Produce json
// @Param name query string false "Substring do nome (case-insensitive)"
// @Param category query string false "Categoria exata; 'All' desliga o filtro"
// @Param minPrice query number false "Preço mínimo (inclusivo)"
// @Param maxPrice query number false "Preço máximo (inclusivo)"
// @Param page query int false "Página"
// @Param limit query int false "Itens por página"
// @Success 200 {object} domain.SweetPage
// @Router /sweets/search [get]
func (h *Handler) SearchSweetsHandler(w http.ResponseWriter, r *http.Request) {
	filter := domain.SweetFilter{
		Page:     parsePageParam(r, "page", 1),
		Limit:    parsePageParam(r, "limit", 20),
		Name:     r.URL.Query().Get("name"),
		Category: r.URL.Query().Get("category"),
		MinPrice: parsePriceParam(r, "minPrice"),
		MaxPrice: parsePriceParam(r, "maxPrice"),
	}

	result, err := h.Service.SearchSweets(r.Context(), filter)
	h.handleServiceResponse(w, r, result, err, http.StatusOK)
}

// CategoriesHandler lida com a requisição GET /sweets/categories.
// @Summary Lista as categorias distintas do catálogo
// @Tags sweets
// @Produce json
// @Success 200 {array} string
// @Router /sweets/categories [get]
func (h *Handler) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.UniqueCategories(r.Context())
	h.handleServiceResponse(w, r, categories, err, http.StatusOK)
}

// UpdateSweetHandler lida com a requisição PUT /sweets/{id}.
// @Summary Atualiza parcialmente um doce (admin)
// @Tags sweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do doce"
// @Param sweet body domain.SweetUpdate true "Campos a atualizar"
// @Success 200 {object} SweetMessageResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /sweets/{id} [put]
func (h *Handler) UpdateSweetHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var update domain.SweetUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Invalid JSON payload"), http.StatusOK)
		return
	}

	sweet, err := h.Service.UpdateSweet(r.Context(), id, update)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, SweetMessageResponse{Message: "Sweet updated", Sweet: sweet}, nil, http.StatusOK)
}

// DeleteSweetHandler lida com a requisição DELETE /sweets/{id}.
// @Summary Remove um doce do catálogo (admin)
// @Tags sweets
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do doce"
// @Success 200 {object} map[string]string
// @Failure 404 {object} domain.ErrorResponse
// @Router /sweets/{id} [delete]
func (h *Handler) DeleteSweetHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.Service.DeleteSweet(r.Context(), id); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]string{"message": "Sweet deleted"}, nil, http.StatusOK)
}

// PurchaseSweetHandler lida com a requisição POST /sweets/{id}/purchase.
// Qualquer usuário autenticado pode comprar; quantidade ausente vale 1.
// @Summary Compra unidades de um doce (decrementa o estoque)
// @Tags sweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do doce"
// @Param purchase body QuantityRequest true "Quantidade a comprar (padrão 1)"
// @Success 200 {object} SweetMessageResponse
// @Failure 400 {object} domain.ErrorResponse "Quantidade inválida ou estoque insuficiente"
// @Failure 404 {object} domain.ErrorResponse
// @Router /sweets/{id}/purchase [post]
func (h *Handler) PurchaseSweetHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Corpo vazio é aceito: a compra sem quantidade explícita vale 1 unidade.
	var req QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("A valid, positive quantity is required"), http.StatusOK)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	sweet, err := h.Service.PurchaseSweet(r.Context(), id, quantity)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, SweetMessageResponse{Message: "Purchase successful", Sweet: sweet}, nil, http.StatusOK)
}

// RestockSweetHandler lida com a requisição POST /sweets/{id}/restock.
// Diferente da compra, a quantidade é sempre obrigatória.
// @Summary Repõe unidades de um doce (admin, incrementa o estoque)
// @Tags sweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do doce"
// @Param restock body QuantityRequest true "Quantidade a repor"
// @Success 200 {object} SweetMessageResponse
// @Failure 400 {object} domain.ErrorResponse "Quantidade inválida"
// @Failure 404 {object} domain.ErrorResponse
// @Router /sweets/{id}/restock [post]
func (h *Handler) RestockSweetHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("A valid, positive quantity is required"), http.StatusOK)
		return
	}

	sweet, err := h.Service.RestockSweet(r.Context(), id, *req.Quantity)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, SweetMessageResponse{Message: "Restocked", Sweet: sweet}, nil, http.StatusOK)
}
