package dto

import "github.com/kelasku/kelasku-go-api/internal/models"

// CategoryCreateRequest describes the payload for creating a category.
type CategoryCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon" validate:"omitempty,max=50"`
}

// CategoryUpdateRequest describes a partial category update.
type CategoryUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description"`
	Icon        *string `json:"icon" validate:"omitempty,max=50"`
}

// CategoryResponse is the serialized category representation.
type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// NewCategoryResponse converts a model into a DTO.
func NewCategoryResponse(category models.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Icon:        category.Icon,
	}
}

// NewCategoryResponseSlice converts categories into DTOs.
func NewCategoryResponseSlice(categories []models.Category) []CategoryResponse {
	responses := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, NewCategoryResponse(category))
	}

	return responses
}
