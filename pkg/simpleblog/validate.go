package simpleblog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks an entity's required-field rules. An empty result means
// the entity is valid.
type Validator[E Entity] interface {
	Validate(ctx context.Context, entity E) []FieldViolation
}

// structValidator implements Validator using struct tag rules.
type structValidator[E Entity] struct {
	validate *validator.Validate
}

// NewValidator returns a Validator driven by the entity's `validate` struct
// tags. Violation fields are reported under their JSON names.
func NewValidator[E Entity]() Validator[E] {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &structValidator[E]{validate: v}
}

func (s *structValidator[E]) Validate(ctx context.Context, entity E) []FieldViolation {
	err := s.validate.StructCtx(ctx, entity)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []FieldViolation{{Message: err.Error()}}
	}

	violations := make([]FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, FieldViolation{
			Field:   fe.Field(),
			Message: fmt.Sprintf("must satisfy the %s rule", fe.Tag()),
		})
	}
	return violations
}
