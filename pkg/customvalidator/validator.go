package customvalidator

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations регистрирует доменные правила валидации.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("entity_code", isEntityCode); err != nil {
		return err
	}
	if err := v.RegisterValidation("time_of_day", isTimeOfDay); err != nil {
		return err
	}
	if err := v.RegisterValidation("order_status", isOrderStatus); err != nil {
		return err
	}
	return nil
}

// Коды продуктов, операций, смен и дефектов: латиница, цифры, дефис, подчёркивание.
func isEntityCode(fl validator.FieldLevel) bool {
	codeRegex := regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,49}$`)
	return codeRegex.MatchString(fl.Field().String())
}

// Время начала/конца смены в формате HH:MM.
func isTimeOfDay(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

func isOrderStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Open", "In Progress", "Completed":
		return true
	}
	return false
}
