package errors

import "fmt"

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")
	ErrInvalidUserID           = fmt.Errorf("недопустимый UserID")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")
	ErrConflict   = fmt.Errorf("запись с таким кодом уже существует")
	ErrInUse      = fmt.Errorf("запись используется и не может быть удалена")

	// Маршруты (routing)
	ErrRoutingNotFound = fmt.Errorf("активный маршрут для продукта не найден")
	ErrRoutingEmpty    = fmt.Errorf("активный маршрут не содержит шагов")
	ErrDuplicateStepNo = fmt.Errorf("номера шагов маршрута повторяются")

	// Производственные заказы и отчёты
	ErrProductInactive     = fmt.Errorf("продукт деактивирован или не существует")
	ErrOrderCompleted      = fmt.Errorf("производственный заказ уже завершён")
	ErrActiveSessionExists = fmt.Errorf("у оператора уже есть открытая смена по этой операции")
	ErrReportAlreadyClosed = fmt.Errorf("производственный отчёт уже закрыт")
)

// HttpError несёт HTTP-код, сообщение для пользователя и внутреннюю ошибку для логов.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: context}
}

// WithDetails прикладывает к ошибке тело для ответа (например, конфликтующий отчёт).
func (e *HttpError) WithDetails(details interface{}) *HttpError {
	e.Details = details
	return e
}

type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
