package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// MaxCartQuantity bounds a single cart line, including merged totals.
const MaxCartQuantity = 10000

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"         json:"id"`
	FullName     string    `gorm:"not null"                     json:"fullname"`
	Email        string    `gorm:"uniqueIndex;not null"         json:"email"`
	PasswordHash string    `gorm:"not null"                     json:"-"`
	Address      string    `json:"address,omitempty"`
	Role         string    `gorm:"not null;default:user"        json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Name        string    `gorm:"not null"              json:"name"`
	Price       float64   `gorm:"not null"              json:"price"`
	ImageURL    string    `gorm:"not null"              json:"imageUrl"`
	Description string    `json:"description"`
	Category    string    `gorm:"index"                 json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CartItem belongs to exactly one user; a user holds at most one row per product.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null"     json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null"     json:"product_id"`
	Quantity  uint      `gorm:"not null;default:1;check:quantity>0"                 json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"    json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}}
}
