package sweetrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/cache"
	"sweetshop/internal/pkg/logger"
)

// uniqueViolation é o código de erro do PostgreSQL para violação de chave única.
const uniqueViolation = "23505"

// Chaves de cache. O cache é somente uma otimização de leitura: toda mutação
// invalida as chaves afetadas e o banco permanece a única fonte de verdade.
const (
	sweetCacheKey      = "sweet:%s"
	categoriesCacheKey = "sweets:categories"
)

// SweetRepository implementa a interface domain.SweetRepository sobre o
// PostgreSQL, com cache-aside no Redis para leituras por ID e categorias.
type SweetRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewSweetRepository cria e retorna uma nova instância do Repositório.
func NewSweetRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *SweetRepository {
	return &SweetRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

const sweetColumns = "id, name, category, price, quantity, created_at, updated_at"

// scanSweet mapeia uma linha do resultado para a struct domain.Sweet.
func scanSweet(row interface{ Scan(...interface{}) error }) (domain.Sweet, error) {
	var s domain.Sweet
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Save persiste um novo Sweet no banco de dados.
// O nome é único em todo o catálogo; a violação vira ConflictError (409).
func (r *SweetRepository) Save(ctx context.Context, sweet domain.Sweet) (domain.Sweet, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	sweet.ID = uuid.NewString()
	sweet.CreatedAt = time.Now()
	sweet.UpdatedAt = sweet.CreatedAt

	const insertSQL = `INSERT INTO sweets (id, name, category, price, quantity, created_at, updated_at)
	                   VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		sweet.ID,
		sweet.Name,
		sweet.Category,
		sweet.Price,
		sweet.Quantity,
		sweet.CreatedAt,
		sweet.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			r.logger.Info("Tentativa de criar doce com nome duplicado.", map[string]interface{}{"name": sweet.Name})
			return domain.Sweet{}, apperror.NewConflictError(fmt.Sprintf("Sweet '%s' already exists", sweet.Name))
		}
		r.logger.Error("Falha ao inserir doce no DB.", err)
		return domain.Sweet{}, apperror.NewDBError("failed to insert sweet", err)
	}

	r.invalidateCaches(ctxTimeout, sweet.ID)
	r.logger.Info("Doce salvo com sucesso no repositório.", map[string]interface{}{"sweet_id": sweet.ID, "name": sweet.Name})
	return sweet, nil
}

// FindByID busca um doce pelo ID, utilizando a estratégia Cache-Aside.
func (r *SweetRepository) FindByID(ctx context.Context, id string) (domain.Sweet, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(sweetCacheKey, id)
	var sweet domain.Sweet

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &sweet) == nil {
			return sweet, nil
		}
		// Desserialização falhou: ignora o cache e segue para o DB
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	query := fmt.Sprintf(`SELECT %s FROM sweets WHERE id = $1`, sweetColumns)

	sweet, err = scanSweet(r.DB.QueryRowContext(ctxTimeout, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sweet{}, apperror.NewNotFoundError("Sweet not found")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar doce no DB.", err)
		return domain.Sweet{}, apperror.NewDBError("failed to find sweet by id", err)
	}

	// 3. Popular o cache para futuras leituras (best-effort)
	if sweetJSON, marshalErr := json.Marshal(sweet); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, sweetJSON, r.CacheTTL)
	}

	return sweet, nil
}

// FindAll retorna uma página de doces segundo o filtro, mais a contagem total
// de registros que satisfazem o filtro (para o cálculo de totalPages).
// A ordenação é sempre por data de criação, descendente.
func (r *SweetRepository) FindAll(ctx context.Context, filter domain.SweetFilter) ([]domain.Sweet, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// Monta a cláusula WHERE como conjunção dos filtros presentes.
	var conditions []string
	var args []interface{}

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Category != "" && filter.Category != domain.CategoryAll {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	// 1. Contagem total (equivalente ao findAndCountAll)
	var total int
	countSQL := "SELECT COUNT(*) FROM sweets" + where
	if err := r.DB.QueryRowContext(ctxTimeout, countSQL, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar doces no DB.", err)
		return nil, 0, apperror.NewDBError("failed to count sweets", err)
	}

	// 2. Página de resultados
	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	listSQL := fmt.Sprintf("SELECT %s FROM sweets%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		sweetColumns, where, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctxTimeout, listSQL, args...)
	if err != nil {
		r.logger.Error("Falha ao listar doces no DB.", err)
		return nil, 0, apperror.NewDBError("failed to list sweets", err)
	}
	defer rows.Close()

	sweets := []domain.Sweet{}
	for rows.Next() {
		sweet, scanErr := scanSweet(rows)
		if scanErr != nil {
			r.logger.Error("Falha ao mapear linha de doce.", scanErr)
			return nil, 0, apperror.NewDBError("failed to scan sweet row", scanErr)
		}
		sweets = append(sweets, sweet)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewDBError("failed to iterate sweet rows", err)
	}

	return sweets, total, nil
}

// Update aplica uma atualização parcial: campos nil do SweetUpdate preservam o
// valor persistido (COALESCE no banco). Retorna o registro atualizado.
func (r *SweetRepository) Update(ctx context.Context, id string, update domain.SweetUpdate) (domain.Sweet, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE sweets
		SET name      = COALESCE($1, name),
		    category  = COALESCE($2, category),
		    price     = COALESCE($3, price),
		    quantity  = COALESCE($4, quantity),
		    updated_at = $5
		WHERE id = $6
		RETURNING %s`, sweetColumns)

	sweet, err := scanSweet(r.DB.QueryRowContext(ctxTimeout, query,
		update.Name,
		update.Category,
		update.Price,
		update.Quantity,
		time.Now(),
		id,
	))

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sweet{}, apperror.NewNotFoundError("Sweet not found")
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.Sweet{}, apperror.NewConflictError("Sweet name already in use")
		}
		r.logger.Error("Falha ao atualizar doce no DB.", err)
		return domain.Sweet{}, apperror.NewDBError("failed to update sweet", err)
	}

	r.invalidateCaches(ctxTimeout, id)
	return sweet, nil
}

// Delete remove um doce permanentemente.
func (r *SweetRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM sweets WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar doce no DB.", err)
		return apperror.NewDBError("failed to delete sweet", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to check deleted rows", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError("Sweet not found")
	}

	r.invalidateCaches(ctxTimeout, id)
	r.logger.Info("Doce removido do repositório.", map[string]interface{}{"sweet_id": id})
	return nil
}

// AdjustQuantity aplica um delta ao estoque de forma atômica no banco.
// Para decrementos (compra), a condição quantity >= -delta garante a
// serialização por doce: duas compras concorrentes nunca levam o estoque
// abaixo de zero, porque a checagem e a escrita acontecem no mesmo UPDATE.
func (r *SweetRepository) AdjustQuantity(ctx context.Context, id string, delta int) (domain.Sweet, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE sweets
		SET quantity = quantity + $1, updated_at = $2
		WHERE id = $3 AND quantity + $1 >= 0
		RETURNING %s`, sweetColumns)

	sweet, err := scanSweet(r.DB.QueryRowContext(ctxTimeout, query, delta, time.Now(), id))

	if errors.Is(err, sql.ErrNoRows) {
		// Zero linhas afetadas: ou o doce não existe, ou o estoque é
		// insuficiente. Uma leitura simples distingue os dois casos.
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return domain.Sweet{}, findErr
		}
		r.logger.Warn("Compra rejeitada por estoque insuficiente.", map[string]interface{}{"sweet_id": id, "delta": delta})
		return domain.Sweet{}, apperror.NewInsufficientStockError("Insufficient stock")
	}
	if err != nil {
		r.logger.Error("Falha ao ajustar estoque no DB.", err)
		return domain.Sweet{}, apperror.NewDBError("failed to adjust sweet quantity", err)
	}

	r.invalidateCaches(ctxTimeout, id)
	r.logger.Info("Estoque ajustado com sucesso.", map[string]interface{}{"sweet_id": id, "delta": delta, "new_quantity": sweet.Quantity})
	return sweet, nil
}

// DistinctCategories retorna o conjunto de categorias presentes no catálogo.
// O resultado é cacheado: é a leitura mais frequente da vitrine.
func (r *SweetRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var categories []string

	cachedData, err := r.Cache.Get(ctxTimeout, categoriesCacheKey)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &categories) == nil {
			return categories, nil
		}
	}

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT DISTINCT category FROM sweets`)
	if err != nil {
		r.logger.Error("Falha ao buscar categorias no DB.", err)
		return nil, apperror.NewDBError("failed to list categories", err)
	}
	defer rows.Close()

	categories = []string{}
	for rows.Next() {
		var category string
		if scanErr := rows.Scan(&category); scanErr != nil {
			return nil, apperror.NewDBError("failed to scan category row", scanErr)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate category rows", err)
	}

	if categoriesJSON, marshalErr := json.Marshal(categories); marshalErr == nil {
		r.Cache.Set(ctxTimeout, categoriesCacheKey, categoriesJSON, r.CacheTTL)
	}

	return categories, nil
}

// invalidateCaches remove as chaves de cache afetadas por uma mutação.
func (r *SweetRepository) invalidateCaches(ctx context.Context, id string) {
	r.Cache.Delete(ctx, fmt.Sprintf(sweetCacheKey, id))
	r.Cache.Delete(ctx, categoriesCacheKey)
}
