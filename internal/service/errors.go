package service

// Kind классифицирует ошибки сервиса для транспортного слоя.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindInternal
)

// Error — ошибка сервиса с сообщением, которое можно отдать клиенту.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrNameEmailRequired возвращается при регистрации без имени или email.
	ErrNameEmailRequired = &Error{Kind: KindValidation, Message: "Name and email are required"}
	// ErrEmailRequired возвращается при входе без email.
	ErrEmailRequired = &Error{Kind: KindValidation, Message: "Email is required"}
	// ErrUserExists возвращается, если email уже зарегистрирован.
	ErrUserExists = &Error{Kind: KindConflict, Message: "User already exists"}
	// ErrUserNotFound возвращается, если клиент с email или идентификатором не найден.
	ErrUserNotFound = &Error{Kind: KindNotFound, Message: "User not found"}
	// ErrInvalidCategory возвращается для пустой категории или категории "unknown".
	ErrInvalidCategory = &Error{Kind: KindValidation, Message: "Invalid category"}
	// ErrMissingFields возвращается, если в покупке не хватает полей.
	ErrMissingFields = &Error{Kind: KindValidation, Message: "Missing fields"}
	// ErrCustomerNotFound возвращается, если покупка не нашла клиента.
	ErrCustomerNotFound = &Error{Kind: KindNotFound, Message: "Customer not found"}
	// ErrRatingNotUpdated возвращается, если не найдена пара клиент/заказ.
	ErrRatingNotUpdated = &Error{Kind: KindNotFound, Message: "Could not update rating"}
	// ErrMissingFeedback возвращается при отзыве без текста или идентификатора клиента.
	ErrMissingFeedback = &Error{Kind: KindValidation, Message: "Missing text or customer_id"}
	// ErrInternal скрывает причину непредвиденной ошибки хранилища или классификатора.
	ErrInternal = &Error{Kind: KindInternal, Message: "Internal Server Error"}
)
