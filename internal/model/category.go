package model

// Category groups subscriptions for display and reporting.
// Rows with IsDefault set were provided by the seed catalog.
type Category struct {
	Color     *string `json:"color"`
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	IsDefault bool    `json:"is_default"`
}

// CreateCategoryPayload carries the user-supplied fields of a new category.
type CreateCategoryPayload struct {
	Color *string `json:"color,omitempty"`
	Name  string  `json:"name"`
}
