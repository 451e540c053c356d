package domain

// Category groups subcategories; names are unique.
type Category struct {
	ID            string
	Name          string
	Subcategories []Subcategory
}

// Subcategory belongs to exactly one category; names are unique within it.
type Subcategory struct {
	ID           string
	CategoryID   string
	CategoryName string
	Name         string
}
