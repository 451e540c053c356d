package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CategoriesHandler serves the category tree.
type CategoriesHandler struct {
	categories *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categories *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// List GET /categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	tree, err := h.categories.Tree(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.CategoryResponse, 0, len(tree))
	for _, category := range tree {
		subs := make([]dto.SubcategoryResponse, 0, len(category.Subcategories))
		for _, sub := range category.Subcategories {
			subs = append(subs, dto.SubcategoryResponse{ID: sub.ID, Name: sub.Name})
		}
		resp = append(resp, dto.CategoryResponse{ID: category.ID, Name: category.Name, Subcategories: subs})
	}
	return c.JSON(fiber.Map{"data": resp})
}
