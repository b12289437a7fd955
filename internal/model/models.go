package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleConsumer Role = "consumer"
)

func (r Role) Valid() bool { return r == RoleFarmer || r == RoleConsumer }

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TelegramID      int64              `bson:"telegramId" json:"telegramId"`
	FirstName       string             `bson:"firstName" json:"firstName"`
	Username        string             `bson:"username,omitempty" json:"username,omitempty"`
	Role            Role               `bson:"role" json:"role"`
	Location        string             `bson:"location,omitempty" json:"location,omitempty"`
	PhoneNumber     string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	FarmName        string             `bson:"farmName,omitempty" json:"farmName,omitempty"`
	FarmDescription string             `bson:"farmDescription,omitempty" json:"farmDescription,omitempty"`
	DeliveryAddress string             `bson:"deliveryAddress,omitempty" json:"deliveryAddress,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the reference-expansion shape embedded in order responses.
type UserSummary struct {
	ID              primitive.ObjectID `json:"id"`
	TelegramID      int64              `json:"telegramId"`
	FirstName       string             `json:"firstName"`
	Username        string             `json:"username,omitempty"`
	FarmName        string             `json:"farmName,omitempty"`
	Location        string             `json:"location,omitempty"`
	PhoneNumber     string             `json:"phoneNumber,omitempty"`
	DeliveryAddress string             `json:"deliveryAddress,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		TelegramID: u.TelegramID,
		FirstName:  u.FirstName,
		Username:   u.Username,
		FarmName:   u.FarmName,
	}
}

// DeepSummary adds the contact fields returned on single-order reads.
func (u *User) DeepSummary() *UserSummary {
	s := u.Summary()
	s.Location = u.Location
	s.PhoneNumber = u.PhoneNumber
	s.DeliveryAddress = u.DeliveryAddress
	return s
}

type Product struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmerID         primitive.ObjectID `bson:"farmerId" json:"farmerId"`
	FarmerTelegramID int64              `bson:"farmerTelegramId" json:"farmerTelegramId"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	Price            float64            `bson:"price" json:"price"`
	Category         string             `bson:"category" json:"category"`
	Images           []string           `bson:"images" json:"images"`
	Stock            int                `bson:"stock" json:"stock"`
	IsAvailable      bool               `bson:"isAvailable" json:"isAvailable"`
	Location         string             `bson:"location,omitempty" json:"location,omitempty"`
	Tags             []string           `bson:"tags" json:"tags"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderItem is a denormalized snapshot of the product at order time.
// Only ProductID links back to live product state.
type OrderItem struct {
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName string             `bson:"productName" json:"productName"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Price       float64            `bson:"price" json:"price"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConsumerID      primitive.ObjectID `bson:"consumerId" json:"consumerId"`
	FarmerID        primitive.ObjectID `bson:"farmerId" json:"farmerId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	DeliveryAddress string             `bson:"deliveryAddress,omitempty" json:"deliveryAddress,omitempty"`
	CustomerPhone   string             `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	CustomerNotes   string             `bson:"customerNotes,omitempty" json:"customerNotes,omitempty"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	Status          OrderStatus        `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Expanded references, attached on reads; never persisted.
	Consumer *UserSummary `bson:"-" json:"consumer,omitempty"`
	Farmer   *UserSummary `bson:"-" json:"farmer,omitempty"`
}
