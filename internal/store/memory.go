package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Jame-iro/agrolink-backend/internal/model"
)

// Memory is a mutex-guarded implementation of the store interfaces. It backs
// the service tests and local development without a running mongod; Reserve
// honors the same single-writer guard contract as the mongo implementation.
type Memory struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*model.User
	products map[primitive.ObjectID]*model.Product
	orders   map[primitive.ObjectID]*model.Order
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[primitive.ObjectID]*model.User),
		products: make(map[primitive.ObjectID]*model.Product),
		orders:   make(map[primitive.ObjectID]*model.Order),
	}
}

// --- users ---

func (m *Memory) ByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) ByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Create(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) Update(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) SetRole(ctx context.Context, telegramID int64, role model.Role) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TelegramID == telegramID {
			u.Role = role
			u.UpdatedAt = time.Now().UTC()
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// UsersStore returns m typed as the Users interface.
func (m *Memory) UsersStore() Users { return m }

// --- products ---

// memProducts wraps Memory so the Product methods don't collide with the
// user methods on the same receiver.
type memProducts struct{ m *Memory }

func (m *Memory) ProductsStore() Products { return &memProducts{m: m} }

func (s *memProducts) ByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memProducts) Create(ctx context.Context, p *model.Product) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	s.m.products[p.ID] = &cp
	return nil
}

func (s *memProducts) Update(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*model.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.IsAvailable != nil {
		p.IsAvailable = *patch.IsAvailable
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (s *memProducts) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.m.products, id)
	return nil
}

func (s *memProducts) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Product
	for _, p := range s.m.products {
		if !p.IsAvailable {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.FarmerTelegramID != 0 && p.FarmerTelegramID != f.FarmerTelegramID {
			continue
		}
		if f.Search != "" && !matchesText(p, f.Search) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// matchesText approximates the mongo text index with substring matching
// over name, description and tags. Good enough for tests.
func matchesText(p *model.Product, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func (s *memProducts) Reserve(ctx context.Context, id primitive.ObjectID, qty int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.products[id]
	if !ok {
		return ErrNotFound
	}
	if !p.IsAvailable {
		return ErrUnavailable
	}
	if p.Stock < qty {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	if p.Stock == 0 {
		p.IsAvailable = false
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memProducts) Restore(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.products[id]
	if !ok {
		return false, nil
	}
	p.Stock += qty
	p.IsAvailable = true
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

// --- orders ---

type memOrders struct{ m *Memory }

func (m *Memory) OrdersStore() Orders { return &memOrders{m: m} }

func (s *memOrders) Create(ctx context.Context, o *model.Order) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.CreatedAt = now
	o.UpdatedAt = now
	cp := *o
	s.m.orders[o.ID] = &cp
	return nil
}

func (s *memOrders) ByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	o, ok := s.m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memOrders) ByConsumer(ctx context.Context, consumerID primitive.ObjectID) ([]model.Order, error) {
	return s.filter(func(o *model.Order) bool { return o.ConsumerID == consumerID })
}

func (s *memOrders) ByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]model.Order, error) {
	return s.filter(func(o *model.Order) bool { return o.FarmerID == farmerID })
}

func (s *memOrders) filter(keep func(*model.Order) bool) ([]model.Order, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Order
	for _, o := range s.m.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memOrders) SetStatus(ctx context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	o, ok := s.m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	prev := *o
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return &prev, nil
}
