package cart

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidProduct  = errors.New("product id is empty")
	ErrSessionRequired = errors.New("session ID required for guest cart")
)
