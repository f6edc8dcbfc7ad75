package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is shared by all entity Validate methods.
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct tags on s and maps the first failing field to
// the sentinel registered for it, falling back to ErrInvalidData.
func validateStruct(s any, fieldErrors map[string]error) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	fe := verrs[0]
	if sentinel, ok := fieldErrors[fe.Field()]; ok {
		return fmt.Errorf("%w: %s=%v", sentinel, fe.Field(), fe.Value())
	}
	return fmt.Errorf("%w: %s failed %q", ErrInvalidData, fe.Field(), fe.Tag())
}
