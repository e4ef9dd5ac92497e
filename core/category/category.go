package category

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

const (
	DefaultIcon  = "home-heart"
	DefaultColor = "#6B73FF"
)

type Category struct {
	ID          string `json:"id" bson:"_id"`
	Name        string `json:"name" bson:"name" validate:"required"`
	Icon        string `json:"icon" bson:"icon"` // MaterialCommunityIcons name
	Color       string `json:"color" bson:"color" validate:"omitempty,hexcolor_"`
	Description string `json:"description" bson:"description"`
	Order       int    `json:"order" bson:"order"`
	IsActive    bool   `json:"isActive" bson:"isActive"`
}

// NewCategory is the creation payload; IsActive defaults to true.
type NewCategory struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	IsActive    *bool  `json:"isActive"`
}

func (c *Category) clean() {
	c.Name = core.CleanString(c.Name)
	c.Icon = core.CleanString(c.Icon)
	c.Color = core.CleanString(c.Color)
	c.Description = core.CleanString(c.Description)
	if c.Icon == "" {
		c.Icon = DefaultIcon
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
}

type (
	Repository interface {
		// List orders categories by Order ascending.
		List(ctx context.Context) ([]Category, error)
		Create(ctx context.Context, c Category) (Category, error)
		Update(ctx context.Context, c Category) error
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo        Repository
		validate    *validator.Validate
		invalidator core.Invalidator
		logger      core.Logger
	}
)

func NewService(repo Repository, validate *validator.Validate, invalidator core.Invalidator, logger core.Logger) *Service {
	return &Service{repo: repo, validate: validate, invalidator: invalidator, logger: logger}
}

func (svc *Service) List(ctx context.Context) ([]Category, error) {
	list, err := svc.repo.List(ctx)
	if err != nil {
		return nil, core.NewStoreError(err, "Failed to load categories")
	}
	return list, nil
}

func (svc *Service) Create(ctx context.Context, nc NewCategory) (Category, error) {
	c := Category{
		Name:        nc.Name,
		Icon:        nc.Icon,
		Color:       nc.Color,
		Description: nc.Description,
		Order:       nc.Order,
		IsActive:    nc.IsActive == nil || *nc.IsActive,
	}
	if err := svc.check(&c); err != nil {
		return Category{}, err
	}
	created, err := svc.repo.Create(ctx, c)
	if err != nil {
		return Category{}, core.NewStoreError(err, "Failed to create category")
	}
	svc.invalidate(ctx)
	return created, nil
}

func (svc *Service) Update(ctx context.Context, id string, c Category) (Category, error) {
	c.ID = core.CleanString(id)
	if c.ID == "" {
		return Category{}, core.NewInvalidArgument("Category id is required.")
	}
	if err := svc.check(&c); err != nil {
		return Category{}, err
	}
	if err := svc.repo.Update(ctx, c); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Category{}, core.NewNotFound("Category %q not found.", c.ID)
		}
		return Category{}, core.NewStoreError(err, "Failed to save category")
	}
	svc.invalidate(ctx)
	return c, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	id = core.CleanString(id)
	if id == "" {
		return core.NewInvalidArgument("Category id is required.")
	}
	if err := svc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NewNotFound("Category %q not found.", id)
		}
		return core.NewStoreError(err, "Failed to delete category")
	}
	svc.invalidate(ctx)
	return nil
}

func (svc *Service) check(c *Category) error {
	c.clean()
	if c.Name == "" {
		return core.NewInvalidArgument("Please enter a category name.")
	}
	if svc.validate != nil {
		return svc.validate.Struct(c)
	}
	return nil
}

func (svc *Service) invalidate(ctx context.Context) {
	if svc.invalidator == nil {
		return
	}
	if err := svc.invalidator.Invalidate(ctx, core.ViewCategories); err != nil {
		svc.logger.Warn("invalidating categories view", err)
	}
}
