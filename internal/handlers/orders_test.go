package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jame-iro/agrolink-backend/internal/events"
	"github.com/Jame-iro/agrolink-backend/internal/model"
	"github.com/Jame-iro/agrolink-backend/internal/service"
	"github.com/Jame-iro/agrolink-backend/internal/store"
)

type apiFixture struct {
	router *gin.Engine
	mem    *store.Memory
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := store.NewMemory()
	log := zap.NewNop()

	dir := service.NewDirectory(mem.UsersStore(), log)
	catalog := service.NewCatalog(mem.ProductsStore(), log)
	orders := service.NewOrders(dir, mem.UsersStore(), mem.ProductsStore(), mem.OrdersStore(), events.Noop{}, log)

	r := gin.New()
	ordersH := NewOrders(orders)
	productsH := NewProducts(catalog, dir)
	api := r.Group("/api")
	api.POST("/orders", ordersH.Create)
	api.GET("/orders/consumer/:id", ordersH.ListByConsumer)
	api.GET("/orders/farmer/:id", ordersH.ListByFarmer)
	api.GET("/orders/:id", ordersH.Get)
	api.PATCH("/orders/:id/status", ordersH.UpdateStatus)
	api.POST("/products", productsH.Create)
	api.GET("/products", productsH.List)

	return &apiFixture{router: r, mem: mem}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) seed(t *testing.T) (farmer, consumer *model.User, product *model.Product) {
	t.Helper()
	farmer = &model.User{TelegramID: 555, FirstName: "Bakyt", Role: model.RoleFarmer}
	require.NoError(t, f.mem.Create(context.Background(), farmer))
	consumer = &model.User{TelegramID: 12345, FirstName: "Alna", Role: model.RoleConsumer, DeliveryAddress: "12 Main St"}
	require.NoError(t, f.mem.Create(context.Background(), consumer))
	product = &model.Product{
		FarmerID:         farmer.ID,
		FarmerTelegramID: 555,
		Name:             "Tomatoes",
		Price:            10.00,
		Category:         "vegetables",
		Stock:            5,
		IsAvailable:      true,
	}
	require.NoError(t, f.mem.ProductsStore().Create(context.Background(), product))
	return farmer, consumer, product
}

func TestCreateOrderEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	_, _, product := f.seed(t)

	w := f.do(t, http.MethodPost, "/api/orders", gin.H{
		"consumerId": "12345",
		"items":      []gin.H{{"productId": product.ID.Hex(), "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		TotalAmount float64 `json:"totalAmount"`
		Status      string  `json:"status"`
		Message     string  `json:"message"`
		Consumer    *struct {
			TelegramID int64 `json:"telegramId"`
		} `json:"consumer"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 20.00, resp.TotalAmount)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "Order created successfully", resp.Message)
	require.NotNil(t, resp.Consumer)
	assert.Equal(t, int64(12345), resp.Consumer.TelegramID)
}

func TestCreateOrderEndpointErrors(t *testing.T) {
	f := newAPIFixture(t)
	_, _, product := f.seed(t)

	cases := []struct {
		name string
		body gin.H
		code int
	}{
		{
			"empty items",
			gin.H{"consumerId": "12345", "items": []gin.H{}},
			http.StatusBadRequest,
		},
		{
			"unknown consumer",
			gin.H{"consumerId": "99999", "items": []gin.H{{"productId": product.ID.Hex(), "quantity": 1}}},
			http.StatusNotFound,
		},
		{
			"invalid product id",
			gin.H{"consumerId": "12345", "items": []gin.H{{"productId": "nope", "quantity": 1}}},
			http.StatusBadRequest,
		},
		{
			"insufficient stock",
			gin.H{"consumerId": "12345", "items": []gin.H{{"productId": product.ID.Hex(), "quantity": 99}}},
			http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/orders", tc.body)
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestOrderStatusEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	_, _, product := f.seed(t)

	w := f.do(t, http.MethodPost, "/api/orders", gin.H{
		"consumerId": "12345",
		"items":      []gin.H{{"productId": product.ID.Hex(), "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Order status updated to confirmed")

	w = f.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", gin.H{"status": "refunded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPatch, "/api/orders/ffffffffffffffffffffffff/status", gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrdersEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	farmer, _, product := f.seed(t)

	w := f.do(t, http.MethodPost, "/api/orders", gin.H{
		"consumerId": "12345",
		"items":      []gin.H{{"productId": product.ID.Hex(), "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/orders/consumer/12345", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)

	w = f.do(t, http.MethodGet, "/api/orders/farmer/"+farmer.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/orders/consumer/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// An identifier in neither scheme resolves to nobody.
	w = f.do(t, http.MethodGet, "/api/orders/consumer/not-a-key", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, http.MethodGet, "/api/orders/farmer/not-a-key", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrderEndpointNumericConsumerID(t *testing.T) {
	f := newAPIFixture(t)
	_, _, product := f.seed(t)

	// Clients sending the Telegram id as a bare JSON number still land.
	w := f.do(t, http.MethodPost, "/api/orders", gin.H{
		"consumerId": 12345,
		"items":      []gin.H{{"productId": product.ID.Hex(), "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateOrderEndpointMalformedConsumerID(t *testing.T) {
	f := newAPIFixture(t)
	_, _, product := f.seed(t)

	w := f.do(t, http.MethodPost, "/api/orders", gin.H{
		"consumerId": "not-a-key",
		"items":      []gin.H{{"productId": product.ID.Hex(), "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Consumer not found")
}

func TestCreateProductEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(t)

	w := f.do(t, http.MethodPost, "/api/products", gin.H{
		"farmerTelegramId": 555,
		"name":             "Carrots",
		"price":            3.20,
		"category":         "vegetables",
		"stock":            7,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"isAvailable":true`)

	w = f.do(t, http.MethodPost, "/api/products", gin.H{
		"farmerTelegramId": 555,
		"name":             "",
		"price":            3.20,
		"category":         "vegetables",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
