// Package validation содержит функции валидации входных данных.
package validation

import "strings"

const unknownCategory = "unknown"

// IsValidCategory проверяет, что категория покупки задана и не равна "unknown" в любом регистре.
func IsValidCategory(category string) bool {
	if category == "" {
		return false
	}
	return !strings.EqualFold(category, unknownCategory)
}
