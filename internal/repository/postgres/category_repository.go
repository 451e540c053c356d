package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type categoryRepository struct {
	db DBTX
}

func (r *categoryRepository) UpsertCategory(ctx context.Context, name string) (*domain.Category, bool, error) {
	const insert = `INSERT INTO categories (id, name) VALUES ($1,$2) ON CONFLICT (name) DO NOTHING`
	cmd, err := r.db.Exec(ctx, insert, uuid.NewString(), name)
	if err != nil {
		return nil, false, mapErr(err)
	}

	var category domain.Category
	if err := r.db.QueryRow(ctx, `SELECT id, name FROM categories WHERE name=$1`, name).
		Scan(&category.ID, &category.Name); err != nil {
		return nil, false, mapErr(err)
	}
	return &category, cmd.RowsAffected() > 0, nil
}

func (r *categoryRepository) UpsertSubcategory(ctx context.Context, categoryID, name string) (*domain.Subcategory, bool, error) {
	const insert = `
        INSERT INTO subcategories (id, category_id, name) VALUES ($1,$2,$3)
        ON CONFLICT (category_id, name) DO NOTHING`
	cmd, err := r.db.Exec(ctx, insert, uuid.NewString(), categoryID, name)
	if err != nil {
		return nil, false, mapErr(err)
	}

	const query = `
        SELECT s.id, s.category_id, c.name, s.name
        FROM subcategories s JOIN categories c ON c.id = s.category_id
        WHERE s.category_id=$1 AND s.name=$2`
	var sub domain.Subcategory
	if err := r.db.QueryRow(ctx, query, categoryID, name).
		Scan(&sub.ID, &sub.CategoryID, &sub.CategoryName, &sub.Name); err != nil {
		return nil, false, mapErr(err)
	}
	return &sub, cmd.RowsAffected() > 0, nil
}

func (r *categoryRepository) GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error) {
	const query = `
        SELECT s.id, s.category_id, c.name, s.name
        FROM subcategories s JOIN categories c ON c.id = s.category_id
        WHERE s.id=$1`
	var sub domain.Subcategory
	if err := r.db.QueryRow(ctx, query, id).
		Scan(&sub.ID, &sub.CategoryID, &sub.CategoryName, &sub.Name); err != nil {
		return nil, mapErr(err)
	}
	return &sub, nil
}

func (r *categoryRepository) ListTree(ctx context.Context) ([]domain.Category, error) {
	const query = `
        SELECT c.id, c.name, s.id, s.name
        FROM categories c LEFT JOIN subcategories s ON s.category_id = c.id
        ORDER BY c.name, s.name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var (
			categoryID, categoryName string
			subID, subName           *string
		)
		if err := rows.Scan(&categoryID, &categoryName, &subID, &subName); err != nil {
			return nil, err
		}
		if len(result) == 0 || result[len(result)-1].ID != categoryID {
			result = append(result, domain.Category{ID: categoryID, Name: categoryName, Subcategories: []domain.Subcategory{}})
		}
		if subID != nil {
			last := &result[len(result)-1]
			last.Subcategories = append(last.Subcategories, domain.Subcategory{
				ID:           *subID,
				CategoryID:   categoryID,
				CategoryName: categoryName,
				Name:         *subName,
			})
		}
	}
	return result, rows.Err()
}
