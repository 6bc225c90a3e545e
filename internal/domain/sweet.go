package domain

import (
	"context"
	"time"
)

// Sweet representa o item principal do catálogo (a Entidade).
// Quantity é a contagem autoritativa de estoque e nunca pode ser negativa.
type Sweet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // Único em todo o catálogo
	Category  string    `json:"category"`
	Price     float64   `json:"price"` // NUMERIC(10,2) no banco
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SweetFilter define os parâmetros de busca e paginação.
// Category vazio ou o sentinela "All" significa "sem filtro de categoria".
type SweetFilter struct {
	Page     int
	Limit    int
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// CategoryAll é o sentinela de categoria que desliga o filtro.
const CategoryAll = "All"

// SweetUpdate carrega os campos de uma atualização parcial.
// Campos nil não são tocados no registro persistido.
type SweetUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Category *string  `json:"category,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
}

// SweetPage é o envelope de paginação retornado pelas listagens.
type SweetPage struct {
	Sweets      []Sweet `json:"sweets"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
}

// --- Interfaces de Contrato ---

// SweetService é a interface que a camada de Serviço (Business Logic) DEVE implementar.
// Ela define o que o Handler (Camada API) pode pedir para a camada de Serviço fazer.
type SweetService interface {
	CreateSweet(ctx context.Context, sweet Sweet) (Sweet, error)
	ListSweets(ctx context.Context, page, limit int) (SweetPage, error)
	SearchSweets(ctx context.Context, filter SweetFilter) (SweetPage, error)
	UniqueCategories(ctx context.Context) ([]string, error)
	UpdateSweet(ctx context.Context, id string, update SweetUpdate) (Sweet, error)
	DeleteSweet(ctx context.Context, id string) error
	PurchaseSweet(ctx context.Context, id string, quantity int) (Sweet, error)
	RestockSweet(ctx context.Context, id string, quantity int) (Sweet, error)
}

// SweetRepository é a interface que a camada de Repositório (Data Access) DEVE implementar.
// AdjustQuantity é o único caminho de mutação de estoque: o decremento condicional
// acontece dentro do banco, nunca como read-modify-write na aplicação.
type SweetRepository interface {
	Save(ctx context.Context, sweet Sweet) (Sweet, error)
	FindByID(ctx context.Context, id string) (Sweet, error)
	FindAll(ctx context.Context, filter SweetFilter) ([]Sweet, int, error)
	Update(ctx context.Context, id string, update SweetUpdate) (Sweet, error)
	Delete(ctx context.Context, id string) error
	AdjustQuantity(ctx context.Context, id string, delta int) (Sweet, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}
