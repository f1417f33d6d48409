package domain

import "time"

type Product struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	CategoryID string    `json:"categoryId"`
	PriceCents int64     `json:"priceCents"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
