package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Jame-iro/agrolink-backend/internal/model"
	"github.com/Jame-iro/agrolink-backend/internal/store"
)

type ProductInput struct {
	FarmerID         primitive.ObjectID
	FarmerTelegramID int64
	Name             string
	Description      string
	Price            float64
	Category         string
	Images           []string
	Stock            int
	Location         string
	Tags             []string
}

type Catalog interface {
	Create(ctx context.Context, in ProductInput) (*model.Product, error)
	Get(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	List(ctx context.Context, f store.ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, patch store.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type catalog struct {
	products store.Products
	log      *zap.Logger
}

func NewCatalog(products store.Products, log *zap.Logger) Catalog {
	return &catalog{products: products, log: log}
}

func (c *catalog) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	if in.Name == "" {
		return nil, E(KindValidation, "Product name is required")
	}
	if in.Category == "" {
		return nil, E(KindValidation, "Product category is required")
	}
	if in.Price <= 0 {
		return nil, E(KindValidation, "Product price must be positive")
	}
	if in.Stock < 0 {
		return nil, E(KindValidation, "Product stock must not be negative")
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	p := &model.Product{
		FarmerID:         in.FarmerID,
		FarmerTelegramID: in.FarmerTelegramID,
		Name:             in.Name,
		Description:      in.Description,
		Price:            in.Price,
		Category:         in.Category,
		Images:           images,
		Stock:            in.Stock,
		// Availability is derived, never taken from the caller.
		IsAvailable: in.Stock > 0,
		Location:    in.Location,
		Tags:        tags,
	}
	if err := c.products.Create(ctx, p); err != nil {
		return nil, Wrap("Failed to create product", err)
	}
	c.log.Info("product created", zap.String("id", p.ID.Hex()), zap.String("name", p.Name))
	return p, nil
}

func (c *catalog) Get(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	p, err := c.products.ByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, E(KindNotFound, "Product not found")
	}
	if err != nil {
		return nil, Wrap("Failed to fetch product", err)
	}
	return p, nil
}

func (c *catalog) List(ctx context.Context, f store.ProductFilter) ([]model.Product, error) {
	products, err := c.products.List(ctx, f)
	if err != nil {
		return nil, Wrap("Failed to fetch products", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (c *catalog) Update(ctx context.Context, id primitive.ObjectID, patch store.ProductPatch) (*model.Product, error) {
	// A stock change re-derives availability unless the caller pinned it.
	if patch.Stock != nil && patch.IsAvailable == nil {
		avail := *patch.Stock > 0
		patch.IsAvailable = &avail
	}
	p, err := c.products.Update(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, E(KindNotFound, "Product not found")
	}
	if err != nil {
		return nil, Wrap("Failed to update product", err)
	}
	return p, nil
}

func (c *catalog) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := c.products.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return E(KindNotFound, "Product not found")
	}
	if err != nil {
		return Wrap("Failed to delete product", err)
	}
	c.log.Info("product deleted", zap.String("id", id.Hex()))
	return nil
}
