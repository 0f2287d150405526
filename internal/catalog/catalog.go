// Package catalog содержит статический каталог товаров для рекомендаций.
package catalog

import "github.com/mmeshcher/customer-engagement/internal/model"

var byCategory = map[string][]model.CatalogItem{
	"Apparel": {
		{Name: "T-Shirt", Price: 299},
		{Name: "Jeans", Price: 899},
		{Name: "Jacket", Price: 1499},
	},
	"Electronics": {
		{Name: "Wireless Mouse", Price: 599},
		{Name: "USB-C Charger", Price: 899},
		{Name: "Power Bank", Price: 999},
	},
	"Books": {
		{Name: "Atomic Habits", Price: 450},
		{Name: "The Alchemist", Price: 350},
	},
	"Accessories": {
		{Name: "Backpack", Price: 799},
		{Name: "Wallet", Price: 499},
	},
	"Footwear": {
		{Name: "Running Shoes", Price: 1200},
		{Name: "Flip-Flops", Price: 250},
	},
}

var defaultProducts = []model.DefaultProduct{
	{Name: "Toothpaste", Category: "Personal Care", Price: 59},
	{Name: "Shampoo", Category: "Personal Care", Price: 139},
	{Name: "Rice Bag (5kg)", Category: "Grocery", Price: 299},
	{Name: "Cooking Oil", Category: "Grocery", Price: 149},
	{Name: "Notebook", Category: "Stationery", Price: 40},
	{Name: "Pen (Pack of 5)", Category: "Stationery", Price: 50},
	{Name: "Instant Noodles", Category: "Food", Price: 30},
}

// Recommendations возвращает товары категории. Для неизвестной категории
// возвращается пустой список. Имя категории чувствительно к регистру.
func Recommendations(category string) []model.CatalogItem {
	items := byCategory[category]
	out := make([]model.CatalogItem, len(items))
	copy(out, items)
	return out
}

// DefaultProducts возвращает копию списка товаров по умолчанию.
func DefaultProducts() []model.DefaultProduct {
	out := make([]model.DefaultProduct, len(defaultProducts))
	copy(out, defaultProducts)
	return out
}
