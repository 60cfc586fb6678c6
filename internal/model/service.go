package model

// Service is a subscribable product such as a streaming platform.
type Service struct {
	IconURL           *string `json:"icon_url"`
	URL               *string `json:"url"`
	DefaultCategoryID *string `json:"default_category_id"`
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	IsDefault         bool    `json:"is_default"`
}

// CreateServicePayload carries the user-supplied fields of a new service.
type CreateServicePayload struct {
	IconURL           *string `json:"icon_url,omitempty"`
	URL               *string `json:"url,omitempty"`
	DefaultCategoryID *string `json:"default_category_id,omitempty"`
	Name              string  `json:"name"`
}
