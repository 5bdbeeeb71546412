package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const maxMessageLength = 2000

// IsObjectID reports whether id is a 24 character hexadecimal object id.
func IsObjectID(id string) bool {
	return len(id) == 24 && primitive.IsValidObjectID(id)
}

// IsBlank reports whether s has no visible content.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func ValidateRegister(email, name, password, role string) ValidationErrors {
	errs := make(ValidationErrors)

	// Email
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	// Name
	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Name is required")
	} else if len(name) < 2 {
		errs.Add("name", "Name must be at least 2 characters")
	} else if len(name) > 100 {
		errs.Add("name", "Name is too long")
	}

	if role != "" && role != "customer" && role != "provider" {
		errs.Add("role", "Role must be customer or provider")
	}

	validatePassword(password, errs)

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateMessage(receiverID, text string) ValidationErrors {
	errs := make(ValidationErrors)

	if !IsObjectID(receiverID) {
		errs.Add("receiverId", "Invalid receiver ID")
	}
	validateText(text, errs)

	return errs
}

func ValidateMessageEdit(text string) ValidationErrors {
	errs := make(ValidationErrors)
	validateText(text, errs)
	return errs
}

func ValidateBooking(providerID, service string, scheduledAt time.Time) ValidationErrors {
	errs := make(ValidationErrors)

	if !IsObjectID(providerID) {
		errs.Add("providerId", "Invalid provider ID")
	}

	service = strings.TrimSpace(service)
	if service == "" {
		errs.Add("service", "Service is required")
	} else if len(service) > 200 {
		errs.Add("service", "Service description is too long")
	}

	if scheduledAt.IsZero() {
		errs.Add("scheduledAt", "Scheduled time is required")
	} else if scheduledAt.Before(time.Now()) {
		errs.Add("scheduledAt", "Scheduled time must be in the future")
	}

	return errs
}

func validateText(text string, errs ValidationErrors) {
	if IsBlank(text) {
		errs.Add("text", "Message text is required")
	} else if len(text) > maxMessageLength {
		errs.Add("text", fmt.Sprintf("Message text must be at most %d characters", maxMessageLength))
	}
}

func validatePassword(password string, errs ValidationErrors) {
	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add("password", fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
	}
}
