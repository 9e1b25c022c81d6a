package domain

import (
	"strconv"
	"strings"
	"time"
)

// Product statuses.
const (
	ProductActive     = "active"
	ProductDraft      = "draft"
	ProductOutOfStock = "out_of_stock"
	ProductArchived   = "archived"
)

// ProductStatuses lists product statuses.
var ProductStatuses = []string{ProductActive, ProductDraft, ProductOutOfStock, ProductArchived}

// ProductCategories lists the catalogue categories offered in filters.
var ProductCategories = []string{"Fashion", "Beauty", "Electronics", "Home", "Groceries"}

// Product is a catalogue item.
type Product struct {
	BaseModel
	SKU             string    `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Name            string    `gorm:"size:200;not null" json:"name"`
	Category        string    `gorm:"size:64;index" json:"category"`
	Status          string    `gorm:"size:32;index;not null" json:"status"`
	Price           float64   `json:"price"`
	Quantity        int       `json:"quantity"`
	Description     string    `gorm:"type:text" json:"description"`
	EstProdDaysFrom int       `json:"est_prod_days_from"`
	EstProdDaysTo   int       `json:"est_prod_days_to"`
	Weight          float64   `json:"weight"`
	Views           int       `json:"views"`
	ListedAt        time.Time `gorm:"index" json:"listed_at"`
}

// ProductFormFields are the form fields of the backend's product update
// form, in submission order.
var ProductFormFields = []string{
	"status", "name", "price", "quantity", "description",
	"est_prod_days_from", "est_prod_days_to", "weight",
}

// ProductUpdate is an edit or archive of a product. Nil fields are left
// unchanged. A non-zero upper production bound is checked against the lower
// bound of the same request, so it is only accepted together with it.
type ProductUpdate struct {
	Status          *string  `json:"status" form:"status" binding:"omitnil,oneof=active draft out_of_stock archived"`
	Name            *string  `json:"name" form:"name" binding:"omitnil,notblank,max=200"`
	Price           *float64 `json:"price" form:"price" binding:"omitnil,gte=0"`
	Quantity        *int     `json:"quantity" form:"quantity" binding:"omitnil,gte=0"`
	Description     *string  `json:"description" form:"description" binding:"omitnil,max=5000"`
	EstProdDaysFrom *int     `json:"est_prod_days_from" form:"est_prod_days_from" binding:"omitnil,gte=0"`
	EstProdDaysTo   *int     `json:"est_prod_days_to" form:"est_prod_days_to" binding:"omitempty,gte=0,gtefield=EstProdDaysFrom"`
	Weight          *float64 `json:"weight" form:"weight" binding:"omitnil,gte=0"`
}

// IsEmpty reports whether u changes nothing.
func (u ProductUpdate) IsEmpty() bool {
	return u.Status == nil && u.Name == nil && u.Price == nil && u.Quantity == nil &&
		u.Description == nil && u.EstProdDaysFrom == nil && u.EstProdDaysTo == nil && u.Weight == nil
}

// Form returns the set fields keyed by their backend form name.
func (u ProductUpdate) Form() map[string]string {
	form := make(map[string]string)
	setString := func(key string, v *string) {
		if v != nil {
			form[key] = strings.TrimSpace(*v)
		}
	}
	setInt := func(key string, v *int) {
		if v != nil {
			form[key] = strconv.Itoa(*v)
		}
	}
	setFloat := func(key string, v *float64) {
		if v != nil {
			form[key] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	setString("status", u.Status)
	setString("name", u.Name)
	setFloat("price", u.Price)
	setInt("quantity", u.Quantity)
	setString("description", u.Description)
	setInt("est_prod_days_from", u.EstProdDaysFrom)
	setInt("est_prod_days_to", u.EstProdDaysTo)
	setFloat("weight", u.Weight)
	return form
}

// Apply copies the set fields of u onto p.
func (p *Product) Apply(u ProductUpdate) {
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
	if u.Description != nil {
		p.Description = strings.TrimSpace(*u.Description)
	}
	if u.EstProdDaysFrom != nil {
		p.EstProdDaysFrom = *u.EstProdDaysFrom
	}
	if u.EstProdDaysTo != nil {
		p.EstProdDaysTo = *u.EstProdDaysTo
	}
	if u.Weight != nil {
		p.Weight = *u.Weight
	}
}
