// Package repository содержит реализации документного хранилища клиентов.
package repository

import "errors"

var (
	// ErrCustomerExists возвращается при попытке создать клиента с уже занятым email.
	ErrCustomerExists = errors.New("customer already exists")
	// ErrCustomerNotFound возвращается, если клиент не найден.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrOrderNotFound возвращается, если у клиента нет подходящего заказа.
	ErrOrderNotFound = errors.New("order not found")
)

// OrderMatch задаёт поле, по которому ищется заказ внутри истории клиента.
type OrderMatch struct {
	// Field — имя поля заказа: "order_id" или "product_name".
	Field string
	Value string
}

// MatchOrder выбирает ключ поиска заказа: идентификатор заказа, если он задан,
// иначе название товара. При совпадении названий берётся первый заказ.
func MatchOrder(orderID, productName string) OrderMatch {
	if orderID != "" {
		return OrderMatch{Field: "order_id", Value: orderID}
	}
	return OrderMatch{Field: "product_name", Value: productName}
}

const customersCollection = "customers"
