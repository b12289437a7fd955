package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Jame-iro/agrolink-backend/internal/events"
	"github.com/Jame-iro/agrolink-backend/internal/model"
	"github.com/Jame-iro/agrolink-backend/internal/store"
)

type OrderItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ConsumerRef is a user identifier taken from a request body. Clients send
// it either as a string or as a bare number (the Telegram id unquoted), so
// both JSON shapes decode into the string form.
type ConsumerRef string

func (r *ConsumerRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ConsumerRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*r = ConsumerRef(n.String())
		return nil
	}
	return errors.New("consumerId must be a string or a number")
}

type CreateOrderInput struct {
	ConsumerID      ConsumerRef      `json:"consumerId"`
	Items           []OrderItemInput `json:"items"`
	DeliveryAddress string           `json:"deliveryAddress"`
	CustomerPhone   string           `json:"customerPhone"`
	CustomerNotes   string           `json:"customerNotes"`
	PaymentMethod   string           `json:"paymentMethod"`
}

type Orders interface {
	Create(ctx context.Context, in CreateOrderInput) (*model.Order, error)
	Get(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	ListByConsumer(ctx context.Context, identifier string) ([]model.Order, error)
	ListByFarmer(ctx context.Context, identifier string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error)
}

type orderEngine struct {
	dir      Directory
	users    store.Users
	products store.Products
	orders   store.Orders
	pub      events.Publisher
	log      *zap.Logger
}

func NewOrders(dir Directory, users store.Users, products store.Products, orders store.Orders, pub events.Publisher, log *zap.Logger) Orders {
	return &orderEngine{dir: dir, users: users, products: products, orders: orders, pub: pub, log: log}
}

// reservation is one committed stock decrement, kept so a failure later in
// the same create can compensate by releasing it.
type reservation struct {
	productID primitive.ObjectID
	qty       int
}

func (e *orderEngine) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, E(KindValidation, "Order must contain at least one item")
	}

	// An identifier that fits neither scheme can match no record, so it
	// reads the same as an unknown consumer.
	key, err := ParseUserKey(string(in.ConsumerID))
	if err != nil {
		return nil, E(KindNotFound, "Consumer not found. Please make sure you are logged in.")
	}
	consumer, err := e.dir.Resolve(ctx, key)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Kind == KindNotFound {
			return nil, E(KindNotFound, "Consumer not found. Please make sure you are logged in.")
		}
		return nil, err
	}

	var (
		total    float64
		items    []model.OrderItem
		farmerID primitive.ObjectID
		farmerTG int64
		reserved []reservation
	)

	// Every reserved item is released again if anything after it fails,
	// so a failed create leaves all products untouched.
	release := func() {
		for _, r := range reserved {
			if _, relErr := e.products.Restore(ctx, r.productID, r.qty); relErr != nil {
				e.log.Error("failed to release reservation",
					zap.String("productId", r.productID.Hex()),
					zap.Int("quantity", r.qty),
					zap.Error(relErr))
			}
		}
	}

	for _, item := range in.Items {
		pid, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			release()
			return nil, E(KindValidation, "Invalid product ID format")
		}
		if item.Quantity <= 0 {
			release()
			return nil, E(KindValidation, "Item quantity must be positive")
		}

		p, err := e.products.ByID(ctx, pid)
		if errors.Is(err, store.ErrNotFound) {
			release()
			return nil, Ef(KindNotFound, "Product not found: %s", item.ProductID)
		}
		if err != nil {
			release()
			return nil, Wrap("Failed to load product", err)
		}

		if farmerID.IsZero() {
			farmerID = p.FarmerID
			farmerTG = p.FarmerTelegramID
		} else if p.FarmerID != farmerID {
			release()
			return nil, E(KindValidation, "All items in an order must belong to the same farmer")
		}

		if !p.IsAvailable {
			release()
			return nil, Ef(KindInvalidState, "Product not available: %s", p.Name)
		}

		// The conditional decrement is the authoritative stock check;
		// the snapshot read above can be stale under concurrency.
		if err := e.products.Reserve(ctx, pid, item.Quantity); err != nil {
			release()
			switch {
			case errors.Is(err, store.ErrInsufficientStock):
				return nil, Ef(KindInsufficientStock, "Insufficient stock for: %s. Available: %d", p.Name, p.Stock)
			case errors.Is(err, store.ErrUnavailable):
				return nil, Ef(KindInvalidState, "Product not available: %s", p.Name)
			case errors.Is(err, store.ErrNotFound):
				return nil, Ef(KindNotFound, "Product not found: %s", item.ProductID)
			default:
				return nil, Wrap("Failed to reserve stock", err)
			}
		}
		reserved = append(reserved, reservation{productID: pid, qty: item.Quantity})

		total += p.Price * float64(item.Quantity)
		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0]
		}
		items = append(items, model.OrderItem{
			ProductID:   pid,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			Price:       p.Price,
			Image:       image,
		})
	}

	address := in.DeliveryAddress
	if address == "" {
		address = consumer.DeliveryAddress
	}
	payment := in.PaymentMethod
	if payment == "" {
		payment = "cash"
	}

	order := &model.Order{
		ConsumerID:      consumer.ID,
		FarmerID:        farmerID,
		Items:           items,
		TotalAmount:     total,
		DeliveryAddress: address,
		CustomerPhone:   in.CustomerPhone,
		CustomerNotes:   in.CustomerNotes,
		PaymentMethod:   payment,
		Status:          model.StatusPending,
	}
	if err := e.orders.Create(ctx, order); err != nil {
		release()
		return nil, Wrap("Failed to create order", err)
	}

	e.log.Info("order created",
		zap.String("orderId", order.ID.Hex()),
		zap.Int64("consumerTelegramId", consumer.TelegramID),
		zap.Int64("farmerTelegramId", farmerTG),
		zap.Float64("totalAmount", total))

	if err := e.pub.OrderCreated(ctx, order); err != nil {
		e.log.Warn("order created event not published", zap.Error(err))
	}

	e.expand(ctx, order, false)
	return order, nil
}

func (e *orderEngine) Get(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	o, err := e.orders.ByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, E(KindNotFound, "Order not found")
	}
	if err != nil {
		return nil, Wrap("Failed to fetch order", err)
	}
	e.expand(ctx, o, true)
	return o, nil
}

func (e *orderEngine) ListByConsumer(ctx context.Context, identifier string) ([]model.Order, error) {
	key, err := ParseUserKey(identifier)
	if err != nil {
		return nil, E(KindNotFound, "Consumer not found")
	}
	consumer, err := e.dir.Resolve(ctx, key)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Kind == KindNotFound {
			return nil, E(KindNotFound, "Consumer not found")
		}
		return nil, err
	}
	orders, err := e.orders.ByConsumer(ctx, consumer.ID)
	if err != nil {
		return nil, Wrap("Failed to fetch orders", err)
	}
	e.expandAll(ctx, orders)
	return orders, nil
}

func (e *orderEngine) ListByFarmer(ctx context.Context, identifier string) ([]model.Order, error) {
	key, err := ParseUserKey(identifier)
	if err != nil {
		return nil, E(KindNotFound, "Farmer not found")
	}
	farmer, err := e.dir.Resolve(ctx, key)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Kind == KindNotFound {
			return nil, E(KindNotFound, "Farmer not found")
		}
		return nil, err
	}
	orders, err := e.orders.ByFarmer(ctx, farmer.ID)
	if err != nil {
		return nil, Wrap("Failed to fetch orders", err)
	}
	e.expandAll(ctx, orders)
	return orders, nil
}

func (e *orderEngine) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, E(KindValidation, "Invalid status")
	}
	prev, err := e.orders.SetStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, E(KindNotFound, "Order not found")
	}
	if err != nil {
		return nil, Wrap("Failed to update order status", err)
	}

	updated := *prev
	updated.Status = status
	updated.UpdatedAt = time.Now().UTC()

	// Stock comes back only on the edge into cancelled; cancelling an
	// already-cancelled order must not restore twice.
	if status == model.StatusCancelled && prev.Status != model.StatusCancelled {
		e.restoreStock(ctx, updated.Items)
	}

	if err := e.pub.OrderStatusChanged(ctx, &updated, prev.Status); err != nil {
		e.log.Warn("order status event not published", zap.Error(err))
	}

	e.expand(ctx, &updated, false)
	return &updated, nil
}

// restoreStock puts each line item's quantity back. Items are independent:
// a missing product is skipped, a store failure is logged and the loop
// moves on.
func (e *orderEngine) restoreStock(ctx context.Context, items []model.OrderItem) {
	for _, item := range items {
		found, err := e.products.Restore(ctx, item.ProductID, item.Quantity)
		if err != nil {
			e.log.Error("failed to restore stock",
				zap.String("productId", item.ProductID.Hex()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
			continue
		}
		if !found {
			e.log.Warn("product gone, stock not restored",
				zap.String("productId", item.ProductID.Hex()))
		}
	}
}

func (e *orderEngine) expand(ctx context.Context, o *model.Order, deep bool) {
	if consumer, err := e.users.ByID(ctx, o.ConsumerID); err == nil {
		if deep {
			o.Consumer = consumer.DeepSummary()
		} else {
			o.Consumer = consumer.Summary()
		}
	}
	if farmer, err := e.users.ByID(ctx, o.FarmerID); err == nil {
		if deep {
			o.Farmer = farmer.DeepSummary()
		} else {
			o.Farmer = farmer.Summary()
		}
	}
}

func (e *orderEngine) expandAll(ctx context.Context, orders []model.Order) {
	for i := range orders {
		e.expand(ctx, &orders[i], false)
	}
}
