package validator

import (
	"log"

	"ngo_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// без правила приложение запускать нельзя
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// -----------------------------------------------------------------
	// ➡️ Правила, основанные на 'statuses.go'
	// -----------------------------------------------------------------
	mustRegister("is-transaction-status", validateTransactionStatus)
	mustRegister("is-donation-purpose", validateDonationPurpose)
	mustRegister("is-donation-type", validateDonationType)
	mustRegister("is-currency", validateCurrency)
}

// Пустые значения не проверяем, для этого есть 'required'

func validateTransactionStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.TransactionStatus(value).IsValid()
}

func validateDonationPurpose(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.DonationPurpose(value).IsValid()
}

func validateDonationType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.DonationType(value).IsValid()
}

// ISO 4217: три заглавные латинские буквы
func validateCurrency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if len(value) != 3 {
		return false
	}
	for _, r := range value {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
