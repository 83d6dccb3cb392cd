package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const productColumns = `id,name,slug,description,short_description,price,discount_price,images,
	category_id,stock,status,popularity,featured,new_arrival,sku,tags,created_at,updated_at`

func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products
		  (id,name,slug,description,short_description,price,discount_price,images,
		   category_id,stock,status,popularity,featured,new_arrival,sku,tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		p.ID, p.Name, p.Slug, p.Description, p.ShortDescription, p.Price, p.DiscountPrice, images,
		p.CategoryID, p.Stock, p.Status, p.Popularity, p.Featured, p.NewArrival, p.SKU, pq.Array(p.Tags))
	return mapWriteErr(err)
}

func (r *postgresRepo) UpdateProduct(ctx context.Context, p *Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name=$1, slug=$2, description=$3, short_description=$4, price=$5, discount_price=$6,
		    images=$7, category_id=$8, status=$9, featured=$10, new_arrival=$11, sku=$12,
		    tags=$13, updated_at=NOW()
		WHERE id=$14`,
		p.Name, p.Slug, p.Description, p.ShortDescription, p.Price, p.DiscountPrice,
		images, p.CategoryID, p.Status, p.Featured, p.NewArrival, p.SKU,
		pq.Array(p.Tags), p.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	return expectOne(res)
}

func scanProduct(scan func(...interface{}) error) (*Product, error) {
	p := &Product{}
	var images []byte
	var categoryID uuid.NullUUID
	err := scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription, &p.Price,
		&p.DiscountPrice, &images, &categoryID, &p.Stock, &p.Status, &p.Popularity,
		&p.Featured, &p.NewArrival, &p.SKU, pq.Array(&p.Tags), &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.UUID
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images of %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func (r *postgresRepo) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	return scanProduct(row.Scan)
}

func (r *postgresRepo) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE slug=$1`, slug)
	return scanProduct(row.Scan)
}

func (r *postgresRepo) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *postgresRepo) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 1
	if f.Status != nil {
		where += fmt.Sprintf(` AND status=$%d`, n)
		args = append(args, *f.Status)
		n++
	}
	if f.CategoryID != nil {
		where += fmt.Sprintf(` AND category_id=$%d`, n)
		args = append(args, *f.CategoryID)
		n++
	}
	if f.Featured != nil {
		where += fmt.Sprintf(` AND featured=$%d`, n)
		args = append(args, *f.Featured)
		n++
	}
	if f.Search != "" {
		where += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d OR $%d = ANY(tags))`, n, n, n+1)
		args = append(args, "%"+f.Search+"%", f.Search)
		n += 2
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + orderBy(f.Sort)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n, n+1)
	args = append(args, f.Limit, f.offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func orderBy(sort string) string {
	switch sort {
	case SortPriceAsc:
		return ` ORDER BY price ASC, created_at DESC`
	case SortPriceDesc:
		return ` ORDER BY price DESC, created_at DESC`
	case SortPopular:
		return ` ORDER BY popularity DESC, created_at DESC`
	default:
		return ` ORDER BY created_at DESC`
	}
}

// ── categories ───────────────────────────────────────────────────────────────

const categoryColumns = `id,name,slug,description,image,parent_id,sort_order,featured,active,created_at,updated_at`

func (r *postgresRepo) CreateCategory(ctx context.Context, c *Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id,name,slug,description,image,parent_id,sort_order,featured,active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.Name, c.Slug, c.Description, c.Image, c.ParentID, c.SortOrder, c.Featured, c.Active)
	return mapWriteErr(err)
}

func (r *postgresRepo) UpdateCategory(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories
		SET name=$1, slug=$2, description=$3, image=$4, parent_id=$5, sort_order=$6,
		    featured=$7, active=$8, updated_at=NOW()
		WHERE id=$9`,
		c.Name, c.Slug, c.Description, c.Image, c.ParentID, c.SortOrder, c.Featured, c.Active, c.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	return expectOne(res)
}

func scanCategory(scan func(...interface{}) error) (*Category, error) {
	c := &Category{}
	var parentID uuid.NullUUID
	err := scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &parentID,
		&c.SortOrder, &c.Featured, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.UUID
	}
	return c, nil
}

func (r *postgresRepo) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id)
	return scanCategory(row.Scan)
}

func (r *postgresRepo) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug=$1`, slug)
	return scanCategory(row.Scan)
}

func (r *postgresRepo) ListCategories(ctx context.Context, activeOnly bool) ([]*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE active=true`
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// mapWriteErr turns unique violations into ErrDuplicate.
func mapWriteErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
