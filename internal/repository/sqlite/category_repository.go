package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const subcategorySelect = `
        SELECT s.id, s.category_id, c.name, s.name
        FROM subcategories s JOIN categories c ON c.id = s.category_id`

type categoryRepository struct {
	db DBTX
}

func (r *categoryRepository) UpsertCategory(ctx context.Context, name string) (*domain.Category, bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name) VALUES (?,?) ON CONFLICT (name) DO NOTHING`,
		uuid.NewString(), name)
	if err != nil {
		return nil, false, mapErr(err)
	}
	created, err := rowsAffected(res)
	if err != nil {
		return nil, false, err
	}

	var category domain.Category
	if err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE name=?`, name).
		Scan(&category.ID, &category.Name); err != nil {
		return nil, false, mapErr(err)
	}
	return &category, created > 0, nil
}

func (r *categoryRepository) UpsertSubcategory(ctx context.Context, categoryID, name string) (*domain.Subcategory, bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subcategories (id, category_id, name) VALUES (?,?,?) ON CONFLICT (category_id, name) DO NOTHING`,
		uuid.NewString(), categoryID, name)
	if err != nil {
		return nil, false, mapErr(err)
	}
	created, err := rowsAffected(res)
	if err != nil {
		return nil, false, err
	}

	sub, err := r.scanSubcategory(r.db.QueryRowContext(ctx, subcategorySelect+` WHERE s.category_id=? AND s.name=?`, categoryID, name))
	if err != nil {
		return nil, false, err
	}
	return sub, created > 0, nil
}

func (r *categoryRepository) GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error) {
	return r.scanSubcategory(r.db.QueryRowContext(ctx, subcategorySelect+` WHERE s.id=?`, id))
}

func (r *categoryRepository) scanSubcategory(row *sql.Row) (*domain.Subcategory, error) {
	var sub domain.Subcategory
	if err := row.Scan(&sub.ID, &sub.CategoryID, &sub.CategoryName, &sub.Name); err != nil {
		return nil, mapErr(err)
	}
	return &sub, nil
}

func (r *categoryRepository) ListTree(ctx context.Context) ([]domain.Category, error) {
	const query = `
        SELECT c.id, c.name, s.id, s.name
        FROM categories c LEFT JOIN subcategories s ON s.category_id = c.id
        ORDER BY c.name, s.name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var (
			categoryID, categoryName string
			subID, subName           sql.NullString
		)
		if err := rows.Scan(&categoryID, &categoryName, &subID, &subName); err != nil {
			return nil, err
		}
		if len(result) == 0 || result[len(result)-1].ID != categoryID {
			result = append(result, domain.Category{ID: categoryID, Name: categoryName, Subcategories: []domain.Subcategory{}})
		}
		if subID.Valid {
			last := &result[len(result)-1]
			last.Subcategories = append(last.Subcategories, domain.Subcategory{
				ID:           subID.String,
				CategoryID:   categoryID,
				CategoryName: categoryName,
				Name:         subName.String,
			})
		}
	}
	return result, rows.Err()
}
