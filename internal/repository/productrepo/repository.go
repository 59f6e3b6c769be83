package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gomarket/internal/domain"
	"gomarket/internal/errors"
	"gomarket/internal/pkg/cache"
	"gomarket/internal/pkg/database"
	"gomarket/internal/pkg/listing"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/pagination"
	"gomarket/internal/pkg/sqlbuilder"
)

// ReviewSampleSize é quantas avaliações recentes acompanham cada produto.
// A média exibida é calculada sobre esta amostra, não sobre o histórico completo.
const ReviewSampleSize = 10

// productCacheKey é a chave de cache de um produto por ID.
const productCacheKey = "product:%s"

// columns é a allow-list campo lógico -> coluna usada pelo Filter Builder.
var columns = sqlbuilder.Columns{
	listing.FieldCategoryID:  {Expr: "p.category_id"},
	listing.FieldPrice:       {Expr: "p.price"},
	listing.FieldName:        {Expr: "p.name"},
	listing.FieldDescription: {Expr: "p.description"},
	listing.FieldBrand:       {Expr: "p.brand"},
	listing.FieldSkinTypes:   {Expr: "p.skin_types", Array: true},
	listing.FieldTags:        {Expr: "p.tags", Array: true},
	listing.FieldStatus:      {Expr: "p.status"},
	listing.FieldSellerID:    {Expr: "p.seller_id"},
	listing.FieldCreatedAt:   {Expr: "p.created_at"},
}

const selectProduct = `
	SELECT p.id, p.seller_id, p.category_id, p.name, p.description, p.brand, p.price, p.stock,
	       p.skin_types, p.tags, p.images, p.status, p.created_at, p.updated_at,
	       c.name, c.slug, u.name, sp.store_name, sp.logo_url
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN users u ON u.id = p.seller_id
	LEFT JOIN seller_profiles sp ON sp.user_id = p.seller_id`

// ProductRepository acessa produtos no PostgreSQL com cache-aside no Redis para a busca por ID.
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client // opcional
	DBTimeout time.Duration
	CacheTTL  time.Duration
	Logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		Logger:    log,
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (domain.Product, error) {
	var (
		p                                    domain.Product
		status                               string
		categoryName, categorySlug, sellerNm sql.NullString
		storeName, logoURL                   sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.SellerID, &p.CategoryID, &p.Name, &p.Description, &p.Brand, &p.Price, &p.Stock,
		pq.Array(&p.SkinTypes), pq.Array(&p.Tags), pq.Array(&p.Images), &status, &p.CreatedAt, &p.UpdatedAt,
		&categoryName, &categorySlug, &sellerNm, &storeName, &logoURL,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Status = domain.ProductStatus(status)

	if categoryName.Valid {
		p.Category = &domain.CategoryRef{ID: p.CategoryID, Name: categoryName.String, Slug: categorySlug.String}
	}
	if sellerNm.Valid {
		p.Seller = &domain.SellerRef{ID: p.SellerID, Name: sellerNm.String}
		if storeName.Valid {
			p.Seller.Profile = &domain.SellerProfile{StoreName: storeName.String, LogoURL: logoURL.String}
		}
	}
	return p, nil
}

// List executa a contagem e a janela em paralelo sobre o mesmo predicado.
func (r *ProductRepository) List(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.Product], error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	b := sqlbuilder.New()
	where, err := b.Where(q.Predicate, columns)
	if err != nil {
		return domain.Page[domain.Product]{}, errors.NewInternalError("Predicado de produto inválido", err)
	}
	orderBy, err := sqlbuilder.OrderBy(q.Sort, columns, "p.id")
	if err != nil {
		return domain.Page[domain.Product]{}, errors.NewInternalError("Ordenação de produto inválida", err)
	}

	countSQL := "SELECT COUNT(*) FROM products p " + where
	countArgs := append([]interface{}{}, b.Args()...)

	windowSQL := fmt.Sprintf("%s %s %s LIMIT %s OFFSET %s",
		selectProduct, where, orderBy, b.Arg(q.Limit), b.Arg(pagination.Offset(q.Page, q.Limit)))
	windowArgs := b.Args()

	items, total, err := pagination.Fetch(ctx,
		func(ctx context.Context) (int, error) {
			var total int
			err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total)
			return total, err
		},
		func(ctx context.Context) ([]domain.Product, error) {
			products, err := r.query(ctx, windowSQL, windowArgs...)
			if err != nil {
				return nil, err
			}
			return products, r.attachReviews(ctx, products)
		},
	)
	if err != nil {
		return domain.Page[domain.Product]{}, errors.NewDBError("Falha ao listar produtos", err)
	}

	return domain.Page[domain.Product]{
		Items:      items,
		Pagination: pagination.New(q.Page, q.Limit, total),
	}, nil
}

func (r *ProductRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const reviewSampleSQL = `
	SELECT product_id, id, rating, comment, author_name, created_at FROM (
		SELECT r.product_id, r.id, r.rating, r.comment, u.name AS author_name, r.created_at,
		       ROW_NUMBER() OVER (PARTITION BY r.product_id ORDER BY r.created_at DESC) AS rn
		FROM product_reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = ANY($1)
	) s
	WHERE rn <= $2
	ORDER BY product_id, created_at DESC`

// attachReviews carrega a amostra de avaliações dos produtos da página numa única query.
func (r *ProductRepository) attachReviews(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	rows, err := r.DB.QueryContext(ctx, reviewSampleSQL, pq.Array(ids), ReviewSampleSize)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			rv        domain.Review
		)
		if err := rows.Scan(&productID, &rv.ID, &rv.Rating, &rv.Comment, &rv.AuthorName, &rv.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[productID]; ok {
			products[i].Reviews = append(products[i].Reviews, rv)
		}
	}
	return rows.Err()
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)

	// --- 1. Cache-Aside (READ) ---
	if r.Cache != nil {
		cached, err := r.Cache.Get(ctx, key)
		if err == nil {
			var product domain.Product
			if json.Unmarshal([]byte(cached), &product) == nil {
				return product, nil
			}
		} else if err != cache.ErrCacheMiss {
			r.Logger.Warn("Falha ao ler produto do cache", map[string]interface{}{"product_id": id, "error": err.Error()})
		}
	}

	// --- 2. Banco de Dados ---
	product, err := scanProduct(r.DB.QueryRowContext(ctx, selectProduct+" WHERE p.id = $1", id))
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	products := []domain.Product{product}
	if err := r.attachReviews(ctx, products); err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar avaliações do produto", err)
	}
	product = products[0]

	// --- 3. Cache-Aside (WRITE) ---
	if r.Cache != nil {
		if data, err := json.Marshal(product); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.CacheTTL); err != nil {
				r.Logger.Warn("Falha ao gravar produto no cache", map[string]interface{}{"product_id": id, "error": err.Error()})
			}
		}
	}
	return product, nil
}

// Save persiste um novo produto.
func (r *ProductRepository) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `INSERT INTO products
		(id, seller_id, category_id, name, description, brand, price, stock, skin_types, tags, images, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.DB.ExecContext(ctx, insertSQL,
		p.ID, p.SellerID, p.CategoryID, p.Name, p.Description, p.Brand, p.Price, p.Stock,
		sqlbuilder.StringArray(p.SkinTypes), sqlbuilder.StringArray(p.Tags), sqlbuilder.StringArray(p.Images),
		string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if database.IsForeignKeyViolation(err) {
		return domain.Product{}, errors.NewValidationError("A categoria informada não existe.")
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao inserir produto", err)
	}
	return p, nil
}

// Update grava os campos editáveis e invalida o cache.
func (r *ProductRepository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE products SET
		category_id = $2, name = $3, description = $4, brand = $5, price = $6, stock = $7,
		skin_types = $8, tags = $9, images = $10, updated_at = $11
		WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, updateSQL,
		p.ID, p.CategoryID, p.Name, p.Description, p.Brand, p.Price, p.Stock,
		sqlbuilder.StringArray(p.SkinTypes), sqlbuilder.StringArray(p.Tags), sqlbuilder.StringArray(p.Images),
		p.UpdatedAt,
	)
	if database.IsForeignKeyViolation(err) {
		return domain.Product{}, errors.NewValidationError("A categoria informada não existe.")
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao atualizar produto", err)
	}
	if err := r.requireAffected(res, p.ID); err != nil {
		return domain.Product{}, err
	}

	r.invalidate(ctx, p.ID)
	return p, nil
}

// UpdateStatus aplica a transição de status (já validada pelo serviço).
func (r *ProductRepository) UpdateStatus(ctx context.Context, id string, status domain.ProductStatus, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctx, `UPDATE products SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return errors.NewDBError("Falha ao atualizar status do produto", err)
	}
	if err := r.requireAffected(res, id); err != nil {
		return err
	}

	r.invalidate(ctx, id)
	return nil
}

// AdjustStock soma delta ao estoque em uma transação com a linha bloqueada (FOR UPDATE)
// e devolve a nova quantidade. O estoque nunca fica negativo.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int, at time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return 0, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}
	if err != nil {
		return 0, errors.NewDBError("Falha ao buscar estoque para atualização", err)
	}

	next := current + delta
	if next < 0 {
		r.Logger.Warn("Ajuste deixaria o estoque negativo.", map[string]interface{}{"product_id": id, "current": current, "delta": delta})
		return 0, errors.NewBusinessRuleError(fmt.Sprintf("Estoque insuficiente: disponível %d, ajuste %d.", current, delta))
	}
	if next > domain.MaxStock {
		return 0, errors.NewBusinessRuleError(fmt.Sprintf("Estoque excede o máximo: disponível %d, ajuste %d.", current, delta))
	}

	if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = $2, updated_at = $3 WHERE id = $1`, id, next, at); err != nil {
		return 0, errors.NewDBError("Falha ao atualizar estoque", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.invalidate(ctx, id)
	return next, nil
}

// FindRelatedCandidates busca produtos ativos que compartilham categoria ou marca.
func (r *ProductRepository) FindRelatedCandidates(ctx context.Context, p domain.Product, limit int) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const candidatesSQL = selectProduct + `
		WHERE p.status = $1 AND p.id <> $2
		  AND (p.category_id = $3 OR ($4 <> '' AND p.brand = $4))
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $5`

	products, err := r.query(ctx, candidatesSQL, string(domain.ProductActive), p.ID, p.CategoryID, p.Brand, limit)
	if err != nil {
		return nil, errors.NewDBError("Falha ao buscar produtos relacionados", err)
	}
	return products, nil
}

func (r *ProductRepository) requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao ler linhas afetadas", err)
	}
	if n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}
	return nil
}

// invalidate remove o produto do cache. Falha aqui só gera log: o TTL limita a inconsistência.
func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id)); err != nil {
		r.Logger.Warn("Falha ao invalidar produto no cache", map[string]interface{}{"product_id": id, "error": err.Error()})
	}
}
