package sweetservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/service/sweetservice"
)

// MockSweetRepository é uma implementação mock da interface SweetRepository
type MockSweetRepository struct {
	mock.Mock
}

func (m *MockSweetRepository) Save(ctx context.Context, sweet domain.Sweet) (domain.Sweet, error) {
	args := m.Called(ctx, sweet)
	return args.Get(0).(domain.Sweet), args.Error(1)
}

func (m *MockSweetRepository) FindByID(ctx context.Context, id string) (domain.Sweet, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Sweet), args.Error(1)
}

func (m *MockSweetRepository) FindAll(ctx context.Context, filter domain.SweetFilter) ([]domain.Sweet, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Sweet), args.Int(1), args.Error(2)
}

func (m *MockSweetRepository) Update(ctx context.Context, id string, update domain.SweetUpdate) (domain.Sweet, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(domain.Sweet), args.Error(1)
}

func (m *MockSweetRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSweetRepository) AdjustQuantity(ctx context.Context, id string, delta int) (domain.Sweet, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(domain.Sweet), args.Error(1)
}

func (m *MockSweetRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func newService(repo *MockSweetRepository) *sweetservice.Service {
	return sweetservice.NewService(repo, logger.NewLogger("error"))
}

// TestCreateSweet_Success testa a criação de um doce válido.
func TestCreateSweet_Success(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	input := domain.Sweet{Name: "Brigadeiro", Category: "Chocolate", Price: 2.50, Quantity: 50}
	saved := input
	saved.ID = uuid.NewString()

	mockRepo.On("Save", mock.Anything, input).Return(saved, nil)

	created, err := svc.CreateSweet(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, saved.ID, created.ID)
	assert.Equal(t, 50, created.Quantity)
	mockRepo.AssertExpectations(t)
}

// TestCreateSweet_Fail_MissingFields testa a rejeição de campos obrigatórios ausentes.
func TestCreateSweet_Fail_MissingFields(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	_, err := svc.CreateSweet(context.Background(), domain.Sweet{Category: "Chocolate", Price: 1, Quantity: 1})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save")
}

// TestCreateSweet_Fail_NegativeValues testa preço e quantidade negativos.
func TestCreateSweet_Fail_NegativeValues(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	_, err := svc.CreateSweet(context.Background(), domain.Sweet{Name: "Bala", Category: "Candy", Price: -1, Quantity: 1})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.CreateSweet(context.Background(), domain.Sweet{Name: "Bala", Category: "Candy", Price: 1, Quantity: -5})
	assert.IsType(t, &apperror.ValidationError{}, err)

	mockRepo.AssertNotCalled(t, "Save")
}

// TestCreateSweet_Fail_DuplicateName testa o conflito de nome único vindo do repositório.
func TestCreateSweet_Fail_DuplicateName(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	input := domain.Sweet{Name: "Brigadeiro", Category: "Chocolate", Price: 2.50, Quantity: 50}
	mockRepo.On("Save", mock.Anything, input).Return(domain.Sweet{}, apperror.NewConflictError("Sweet 'Brigadeiro' already exists"))

	_, err := svc.CreateSweet(context.Background(), input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertExpectations(t)
}

// TestListSweets_PaginationDefaults testa os padrões de page/limit e o cálculo de totalPages.
func TestListSweets_PaginationDefaults(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	sweets := []domain.Sweet{{ID: uuid.NewString(), Name: "Quindim"}}
	// Page e limit inválidos caem nos padrões 1/20
	mockRepo.On("FindAll", mock.Anything, domain.SweetFilter{Page: 1, Limit: 20}).Return(sweets, 45, nil)

	page, err := svc.ListSweets(context.Background(), 0, -3)

	assert.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages) // ceil(45/20)
	assert.Len(t, page.Sweets, 1)
	mockRepo.AssertExpectations(t)
}

// TestListSweets_LimitSafeguard testa o teto de itens por página.
func TestListSweets_LimitSafeguard(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	mockRepo.On("FindAll", mock.Anything, domain.SweetFilter{Page: 2, Limit: 100}).Return([]domain.Sweet{}, 0, nil)

	_, err := svc.ListSweets(context.Background(), 2, 500)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestSearchSweets_PassesFilters testa o repasse da conjunção de filtros ao repositório.
func TestSearchSweets_PassesFilters(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	minPrice := 1.0
	maxPrice := 5.0
	filter := domain.SweetFilter{
		Page: 1, Limit: 20,
		Name: "briga", Category: "Chocolate",
		MinPrice: &minPrice, MaxPrice: &maxPrice,
	}
	mockRepo.On("FindAll", mock.Anything, filter).Return([]domain.Sweet{}, 0, nil)

	page, err := svc.SearchSweets(context.Background(), filter)

	assert.NoError(t, err)
	assert.Equal(t, 0, page.TotalPages)
	mockRepo.AssertExpectations(t)
}

// TestSearchSweets_Fail_InvalidPriceRange testa maxPrice menor que minPrice.
func TestSearchSweets_Fail_InvalidPriceRange(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	minPrice := 5.0
	maxPrice := 1.0
	_, err := svc.SearchSweets(context.Background(), domain.SweetFilter{MinPrice: &minPrice, MaxPrice: &maxPrice})

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindAll")
}

// TestUpdateSweet_PartialFields testa a atualização parcial repassada ao repositório.
func TestUpdateSweet_PartialFields(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	id := uuid.NewString()
	newPrice := 3.75
	update := domain.SweetUpdate{Price: &newPrice}
	updated := domain.Sweet{ID: id, Name: "Brigadeiro", Category: "Chocolate", Price: newPrice, Quantity: 50}

	mockRepo.On("Update", mock.Anything, id, update).Return(updated, nil)

	sweet, err := svc.UpdateSweet(context.Background(), id, update)

	assert.NoError(t, err)
	assert.Equal(t, newPrice, sweet.Price)
	assert.Equal(t, "Brigadeiro", sweet.Name)
	mockRepo.AssertExpectations(t)
}

// TestUpdateSweet_Fail_NotFound testa a atualização de um ID inexistente.
func TestUpdateSweet_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	id := uuid.NewString()
	mockRepo.On("Update", mock.Anything, id, domain.SweetUpdate{}).Return(domain.Sweet{}, apperror.NewNotFoundError("Sweet not found"))

	_, err := svc.UpdateSweet(context.Background(), id, domain.SweetUpdate{})

	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertExpectations(t)
}

// TestDeleteSweet_Success testa a remoção de um doce existente.
func TestDeleteSweet_Success(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	id := uuid.NewString()
	mockRepo.On("Delete", mock.Anything, id).Return(nil)

	err := svc.DeleteSweet(context.Background(), id)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestPurchaseSweet_Success testa a compra com estoque suficiente.
// O serviço deve pedir ao repositório um delta negativo.
func TestPurchaseSweet_Success(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	id := uuid.NewString()
	after := domain.Sweet{ID: id, Name: "Brigadeiro", Quantity: 40}
	mockRepo.On("AdjustQuantity", mock.Anything, id, -10).Return(after, nil)

	sweet, err := svc.PurchaseSweet(context.Background(), id, 10)

	assert.NoError(t, err)
	assert.Equal(t, 40, sweet.Quantity)
	mockRepo.AssertExpectations(t)
}

// TestPurchaseSweet_Fail_InvalidQuantity testa quantidades não positivas.
func TestPurchaseSweet_Fail_InvalidQuantity(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	for _, quantity := range []int{0, -5} {
		_, err := svc.PurchaseSweet(context.Background(), uuid.NewString(), quantity)
		assert.Error(t, err)
		assert.IsType(t, &apperror.ValidationError{}, err)
		assert.Equal(t, "A valid, positive quantity is required", err.Error())
	}
	mockRepo.AssertNotCalled(t, "AdjustQuantity")
}

// TestPurchaseSweet_Fail_InsufficientStock testa o conflito de estoque insuficiente.
func TestPurchaseSweet_Fail_InsufficientStock(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	id := uuid.NewString()
	mockRepo.On("AdjustQuantity", mock.Anything, id, -41).Return(domain.Sweet{}, apperror.NewInsufficientStockError("Insufficient stock"))

	_, err := svc.PurchaseSweet(context.Background(), id, 41)

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	assert.Equal(t, "Insufficient stock", err.Error())
	mockRepo.AssertExpectations(t)
}

// TestPurchaseSweet_Fail_NotFound testa a compra de um ID inexistente.
func TestPurchaseSweet_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	id := uuid.NewString()
	mockRepo.On("AdjustQuantity", mock.Anything, id, -1).Return(domain.Sweet{}, apperror.NewNotFoundError("Sweet not found"))

	_, err := svc.PurchaseSweet(context.Background(), id, 1)

	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertExpectations(t)
}

// TestRestockSweet_Success testa a reposição com delta positivo.
func TestRestockSweet_Success(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	id := uuid.NewString()
	after := domain.Sweet{ID: id, Name: "Brigadeiro", Quantity: 60}
	mockRepo.On("AdjustQuantity", mock.Anything, id, 20).Return(after, nil)

	sweet, err := svc.RestockSweet(context.Background(), id, 20)

	assert.NoError(t, err)
	assert.Equal(t, 60, sweet.Quantity)
	mockRepo.AssertExpectations(t)
}

// TestRestockSweet_Fail_InvalidQuantity testa a reposição com quantidade inválida.
func TestRestockSweet_Fail_InvalidQuantity(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	_, err := svc.RestockSweet(context.Background(), uuid.NewString(), 0)

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "AdjustQuantity")
}

// TestUniqueCategories_Success testa o repasse das categorias distintas.
func TestUniqueCategories_Success(t *testing.T) {
	mockRepo := new(MockSweetRepository)
	svc := newService(mockRepo)

	expected := []string{"Chocolate", "Candy"}
	mockRepo.On("DistinctCategories", mock.Anything).Return(expected, nil)

	categories, err := svc.UniqueCategories(context.Background())

	assert.NoError(t, err)
	assert.ElementsMatch(t, expected, categories)
	mockRepo.AssertExpectations(t)
}
