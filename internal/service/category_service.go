package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// ErrCategoryNotFound indicates the category was not located.
var ErrCategoryNotFound = errors.New("category not found")

// CategoryService owns the course category taxonomy.
type CategoryService interface {
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	Get(ctx context.Context, id uint) (dto.CategoryResponse, error)
	Create(ctx context.Context, payload dto.CategoryCreateRequest) (dto.CategoryResponse, error)
	Update(ctx context.Context, id uint, payload dto.CategoryUpdateRequest) (dto.CategoryResponse, error)
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	categories repository.CategoryRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewCategoryService constructs the category service.
func NewCategoryService(categories repository.CategoryRepository, validate *validator.Validate, logger zerolog.Logger) CategoryService {
	return &categoryService{
		categories: categories,
		validator:  validate,
		logger:     logger.With().Str("component", "category_service").Logger(),
	}
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewCategoryResponseSlice(categories), nil
}

func (s *categoryService) Get(ctx context.Context, id uint) (dto.CategoryResponse, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CategoryResponse{}, ErrCategoryNotFound
		}
		return dto.CategoryResponse{}, err
	}

	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) Create(ctx context.Context, payload dto.CategoryCreateRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CategoryResponse{}, err
	}

	category := models.Category{
		Name:        payload.Name,
		Description: payload.Description,
		Icon:        payload.Icon,
	}

	if err := s.categories.Create(ctx, &category); err != nil {
		return dto.CategoryResponse{}, err
	}

	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) Update(ctx context.Context, id uint, payload dto.CategoryUpdateRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CategoryResponse{}, err
	}

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CategoryResponse{}, ErrCategoryNotFound
		}
		return dto.CategoryResponse{}, err
	}

	if payload.Name != nil {
		category.Name = *payload.Name
	}
	if payload.Description != nil {
		category.Description = *payload.Description
	}
	if payload.Icon != nil {
		category.Icon = *payload.Icon
	}

	if err := s.categories.Update(ctx, &category); err != nil {
		return dto.CategoryResponse{}, err
	}

	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) Delete(ctx context.Context, id uint) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	return nil
}
