package sweetservice

import (
	"context"
	"math"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
)

// Limites de paginação. Valores ausentes ou inválidos caem nos padrões
// sem erro; o limite máximo protege o banco de páginas absurdas.
const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Service implementa a interface domain.SweetService.
type Service struct {
	repo   domain.SweetRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Inventário.
func NewService(repo domain.SweetRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateSweet valida e persiste um novo doce no catálogo.
func (s *Service) CreateSweet(ctx context.Context, sweet domain.Sweet) (domain.Sweet, error) {
	if sweet.Name == "" || sweet.Category == "" {
		return domain.Sweet{}, apperror.NewValidationError("name, category, price and quantity required")
	}
	if sweet.Price < 0 {
		return domain.Sweet{}, apperror.NewValidationError("price must not be negative")
	}
	if sweet.Quantity < 0 {
		return domain.Sweet{}, apperror.NewValidationError("quantity must not be negative")
	}

	created, err := s.repo.Save(ctx, sweet)
	if err != nil {
		return domain.Sweet{}, err
	}

	s.logger.Info("Doce criado no catálogo.", map[string]interface{}{"sweet_id": created.ID, "name": created.Name})
	return created, nil
}

// ListSweets retorna uma página do catálogo ordenada por criação, descendente.
func (s *Service) ListSweets(ctx context.Context, page, limit int) (domain.SweetPage, error) {
	return s.SearchSweets(ctx, domain.SweetFilter{Page: page, Limit: limit})
}

// SearchSweets aplica a conjunção de filtros (nome contém, categoria exata,
// faixa de preço inclusiva) com o mesmo contrato de paginação da listagem.
// A ausência de todos os filtros equivale a ListSweets.
func (s *Service) SearchSweets(ctx context.Context, filter domain.SweetFilter) (domain.SweetPage, error) {
	filter.Page, filter.Limit = normalizePagination(filter.Page, filter.Limit)

	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		return domain.SweetPage{}, apperror.NewValidationError("minPrice must not be negative")
	}
	if filter.MaxPrice != nil && filter.MinPrice != nil && *filter.MaxPrice < *filter.MinPrice {
		return domain.SweetPage{}, apperror.NewValidationError("maxPrice must not be lower than minPrice")
	}

	sweets, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return domain.SweetPage{}, err
	}

	return domain.SweetPage{
		Sweets:      sweets,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		CurrentPage: filter.Page,
	}, nil
}

// UniqueCategories retorna o conjunto de categorias do catálogo (ordem livre).
func (s *Service) UniqueCategories(ctx context.Context) ([]string, error) {
	return s.repo.DistinctCategories(ctx)
}

// UpdateSweet aplica uma atualização parcial a um doce existente.
// Somente os campos presentes no payload são alterados.
func (s *Service) UpdateSweet(ctx context.Context, id string, update domain.SweetUpdate) (domain.Sweet, error) {
	if id == "" {
		return domain.Sweet{}, apperror.NewValidationError("sweet id is required")
	}
	if update.Name != nil && *update.Name == "" {
		return domain.Sweet{}, apperror.NewValidationError("name must not be empty")
	}
	if update.Category != nil && *update.Category == "" {
		return domain.Sweet{}, apperror.NewValidationError("category must not be empty")
	}
	if update.Price != nil && *update.Price < 0 {
		return domain.Sweet{}, apperror.NewValidationError("price must not be negative")
	}
	if update.Quantity != nil && *update.Quantity < 0 {
		return domain.Sweet{}, apperror.NewValidationError("quantity must not be negative")
	}

	sweet, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return domain.Sweet{}, err
	}

	s.logger.Info("Doce atualizado.", map[string]interface{}{"sweet_id": sweet.ID})
	return sweet, nil
}

// DeleteSweet remove um doce do catálogo permanentemente.
func (s *Service) DeleteSweet(ctx context.Context, id string) error {
	if id == "" {
		return apperror.NewValidationError("sweet id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Doce removido do catálogo.", map[string]interface{}{"sweet_id": id})
	return nil
}

// PurchaseSweet decrementa o estoque em quantity unidades.
// O decremento condicional acontece no repositório em um único UPDATE:
// compras concorrentes do mesmo doce são serializadas pelo banco e o
// estoque nunca fica negativo.
func (s *Service) PurchaseSweet(ctx context.Context, id string, quantity int) (domain.Sweet, error) {
	if err := validateQuantity(quantity); err != nil {
		return domain.Sweet{}, err
	}

	sweet, err := s.repo.AdjustQuantity(ctx, id, -quantity)
	if err != nil {
		return domain.Sweet{}, err
	}

	s.logger.Info("Compra concluída.", map[string]interface{}{"sweet_id": sweet.ID, "quantity": quantity, "remaining": sweet.Quantity})
	return sweet, nil
}

// RestockSweet incrementa o estoque em quantity unidades (admin).
func (s *Service) RestockSweet(ctx context.Context, id string, quantity int) (domain.Sweet, error) {
	if err := validateQuantity(quantity); err != nil {
		return domain.Sweet{}, err
	}

	sweet, err := s.repo.AdjustQuantity(ctx, id, quantity)
	if err != nil {
		return domain.Sweet{}, err
	}

	s.logger.Info("Estoque reposto.", map[string]interface{}{"sweet_id": sweet.ID, "quantity": quantity, "new_total": sweet.Quantity})
	return sweet, nil
}

// validateQuantity exige um inteiro estritamente positivo para compra/reposição.
func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return apperror.NewValidationError("A valid, positive quantity is required")
	}
	return nil
}

// normalizePagination aplica padrões e o teto de itens por página.
func normalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
