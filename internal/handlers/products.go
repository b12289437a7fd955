package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Jame-iro/agrolink-backend/internal/service"
	"github.com/Jame-iro/agrolink-backend/internal/store"
)

type Products struct {
	Catalog service.Catalog
	Dir     service.Directory
}

func NewProducts(catalog service.Catalog, dir service.Directory) *Products {
	return &Products{Catalog: catalog, Dir: dir}
}

type createProductReq struct {
	FarmerTelegramID int64    `json:"farmerTelegramId"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Price            float64  `json:"price"`
	Category         string   `json:"category"`
	Images           []string `json:"images"`
	Stock            int      `json:"stock"`
	Location         string   `json:"location"`
	Tags             []string `json:"tags"`
}

// Create handles POST /api/products. The owning farmer is resolved from the
// Telegram id in the body so the record carries both farmer references.
func (h *Products) Create(c *gin.Context) {
	var req createProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	farmer, err := h.Dir.Resolve(c.Request.Context(), service.TelegramKey(req.FarmerTelegramID))
	if err != nil {
		fail(c, err)
		return
	}
	product, err := h.Catalog.Create(c.Request.Context(), service.ProductInput{
		FarmerID:         farmer.ID,
		FarmerTelegramID: farmer.TelegramID,
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		Category:         req.Category,
		Images:           req.Images,
		Stock:            req.Stock,
		Location:         req.Location,
		Tags:             req.Tags,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// List handles GET /api/products with category, farmerTelegramId and search
// query filters. Only available products are returned, newest first.
func (h *Products) List(c *gin.Context) {
	filter := store.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("farmerTelegramId"); raw != "" {
		tg, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farmerTelegramId"})
			return
		}
		filter.FarmerTelegramID = tg
	}
	products, err := h.Catalog.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Get handles GET /api/products/:id.
func (h *Products) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return
	}
	product, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type updateProductReq struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *string   `json:"category"`
	Images      *[]string `json:"images"`
	Stock       *int      `json:"stock"`
	IsAvailable *bool     `json:"isAvailable"`
	Location    *string   `json:"location"`
	Tags        *[]string `json:"tags"`
}

// Update handles PUT /api/products/:id. Absent fields stay untouched.
func (h *Products) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return
	}
	var req updateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	product, err := h.Catalog.Update(c.Request.Context(), id, store.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Images:      req.Images,
		Stock:       req.Stock,
		IsAvailable: req.IsAvailable,
		Location:    req.Location,
		Tags:        req.Tags,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Delete handles DELETE /api/products/:id.
func (h *Products) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return
	}
	if err := h.Catalog.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
