// Package i18n holds the Ukrainian user-facing messages shared by the JSON
// API and the HTML views.
package i18n

import (
	"errors"
	"net/http"

	"github.com/example/roombooking/internal/application"
)

// StatusMessage returns the generic message for an HTTP status.
func StatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Запит містить помилки."
	case http.StatusUnauthorized:
		return "Потрібно увійти в систему."
	case http.StatusForbidden:
		return "Недостатньо прав для виконання цієї дії."
	case http.StatusNotFound:
		return "Запитаний ресурс не знайдено."
	case http.StatusConflict:
		return "Такий запис уже існує."
	case http.StatusUnprocessableEntity:
		return "Перевірте правильність введених даних."
	default:
		return "Сталася внутрішня помилка сервера."
	}
}

// RejectionMessage localizes a booking rejection reason.
func RejectionMessage(reason string) string {
	switch reason {
	case application.ReasonMissingFields:
		return "Заповніть усі поля та оберіть хоча б одного учасника."
	case application.ReasonInvalidOrder:
		return "Час початку має бути раніше за час завершення."
	case application.ReasonEndInPast:
		return "Час завершення має бути в майбутньому."
	default:
		return "Бронювання відхилено."
	}
}

// ValidationMessage localizes a field level validation message.
func ValidationMessage(message string) string {
	switch message {
	case "name is required":
		return "Назва обов'язкова."
	case "description is required":
		return "Опис обов'язковий."
	case "email is required":
		return "Електронна пошта обов'язкова."
	case "email is invalid":
		return "Некоректна адреса електронної пошти."
	case "password is too short":
		return "Пароль має містити щонайменше 6 символів."
	case "role is invalid":
		return "Роль має бути admin або user."
	case "id is required":
		return "Ідентифікатор обов'язковий."
	case "start_time is invalid":
		return "Некоректний час початку."
	case "end_time is invalid":
		return "Некоректний час завершення."
	default:
		return message
	}
}

// ValidationMessages localizes every field of a validation error.
func ValidationMessages(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}
	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = ValidationMessage(msg)
	}
	return translated
}

// ErrorMessage returns the page or response level message for a service error.
func ErrorMessage(err error) string {
	var (
		rejection *application.BookingRejection
		batchErr  *application.BatchDeleteError
		cascade   *application.CascadeError
		vErr      *application.ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rejection):
		return RejectionMessage(rejection.Reason)
	case errors.As(err, &batchErr):
		return "Не вдалося видалити всі бронювання кімнати, тому кімнату не видалено."
	case errors.As(err, &cascade):
		return "Бронювання кімнати видалено, але саму кімнату видалити не вдалося."
	case errors.As(err, &vErr):
		return StatusMessage(http.StatusUnprocessableEntity)
	case errors.Is(err, application.ErrInvalidCredentials):
		return "Неправильна електронна пошта або пароль."
	case errors.Is(err, application.ErrSessionExpired):
		return "Сеанс завершився. Увійдіть знову."
	case errors.Is(err, application.ErrSessionRevoked):
		return "Сеанс більше не дійсний. Увійдіть знову."
	case errors.Is(err, application.ErrUnauthenticated):
		return StatusMessage(http.StatusUnauthorized)
	case errors.Is(err, application.ErrUnauthorized):
		return StatusMessage(http.StatusForbidden)
	case errors.Is(err, application.ErrNotFound):
		return StatusMessage(http.StatusNotFound)
	case errors.Is(err, application.ErrAlreadyExists):
		return "Користувач із такою електронною поштою вже існує."
	default:
		return StatusMessage(http.StatusInternalServerError)
	}
}
