// Package catalog holds the product data model and the client of the shop's
// product and order API.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Picture is one product image.
type Picture struct {
	ID        int    `json:"id"`
	Pic       string `json:"pic"`
	Thumbnail string `json:"thumbnail"`
}

// Size is a shoe size known to the shop.
type Size struct {
	ID   int `json:"id"`
	Size int `json:"size"`
}

// StockItem is the stock of one product in one size.
type StockItem struct {
	ID    int  `json:"id"`
	Size  Size `json:"size"`
	Stock int  `json:"stock"`
}

// Product is immutable once decoded from the API.
type Product struct {
	URL               string          `json:"url"`
	ID                int             `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Brand             string          `json:"brand"`
	Category          string          `json:"category"`
	Season            string          `json:"season"`
	Price             decimal.Decimal `json:"price"`
	PriceCurrency     string          `json:"price_currency"`
	IsNew             bool            `json:"is_new"`
	Color             string          `json:"color"`
	InnerMaterial     string          `json:"inner_material"`
	OuterMaterial     string          `json:"outer_material"`
	Sole              *string         `json:"sole"`
	MainPicture       Picture         `json:"main_picture"`
	SecondaryPictures []Picture       `json:"secondary_pictures"`
	StockItems        []StockItem     `json:"stock_items"`
}

// Pictures returns the main picture followed by the secondary ones.
func (p Product) Pictures() []Picture {
	out := make([]Picture, 0, 1+len(p.SecondaryPictures))
	out = append(out, p.MainPicture)
	return append(out, p.SecondaryPictures...)
}

// AvailableStockItems returns the stock items with a positive count.
func (p Product) AvailableStockItems() []StockItem {
	out := make([]StockItem, 0, len(p.StockItems))
	for _, item := range p.StockItems {
		if item.Stock > 0 {
			out = append(out, item)
		}
	}
	return out
}

// SizeByID finds the size of a stock item by size id.
func (p Product) SizeByID(sizeID int) (Size, bool) {
	for _, item := range p.StockItems {
		if item.Size.ID == sizeID {
			return item.Size, true
		}
	}
	return Size{}, false
}

// MinorUnits converts the price to the smallest unit of its currency.
func (p Product) MinorUnits() int64 {
	return ToMinor(p.Price, p.PriceCurrency)
}

// Validate reports the first schema violation.
func (p Product) Validate() error {
	var errs []error
	required := map[string]string{
		"url":            p.URL,
		"code":           p.Code,
		"name":           p.Name,
		"price_currency": p.PriceCurrency,
		"main_picture":   p.MainPicture.Pic,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("product %d: %s is required", p.ID, field))
		}
	}
	if p.ID <= 0 {
		errs = append(errs, fmt.Errorf("product: id must be positive, got %d", p.ID))
	}
	if p.Price.IsNegative() {
		errs = append(errs, fmt.Errorf("product %d: negative price %s", p.ID, p.Price))
	}
	for _, item := range p.StockItems {
		if item.Size.ID <= 0 {
			errs = append(errs, fmt.Errorf("product %d: stock item %d without size", p.ID, item.ID))
		}
	}
	return errors.Join(errs...)
}
