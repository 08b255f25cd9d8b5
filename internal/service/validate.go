package service

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		err := validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		if err != nil {
			panic(err)
		}
	})
	return validate
}

// Validate checks a form struct (TaskDraft, Credentials, Registration)
// and returns a KindValidation *Error naming the first bad field.
func Validate(form any) error {
	err := validatorInstance().Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return &Error{Kind: KindValidation, Message: field + " is required", Err: err}
	case "email":
		return &Error{Kind: KindValidation, Message: "invalid email address", Err: err}
	}
	return &Error{Kind: KindValidation, Message: "invalid " + field, Err: err}
}
