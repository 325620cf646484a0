package source

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/c360studio/obmalloy/model"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// ErrInvalidDocument is returned when a document fails validation.
	ErrInvalidDocument = errors.New("invalid model document")

	// ErrInvalidMultiplicity is returned for a malformed multiplicity.
	ErrInvalidMultiplicity = errors.New("invalid multiplicity")

	endRefPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\.(source|target|[0-9]+)$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("multiplicity", func(fl validator.FieldLevel) bool {
		_, _, err := ParseMultiplicity(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("endref", func(fl validator.FieldLevel) bool {
		return endRefPattern.MatchString(fl.Field().String())
	})
}

// Validate checks the structural rules of a document.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, d.Filename, formatValidationError(err))
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "multiplicity":
			return fmt.Errorf("%s: %q is not n, n..m, n..* or *", field, e.Value())
		case "endref":
			return fmt.Errorf("%s: %q is not connector.source, connector.target or connector.<index>", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}

// ParseMultiplicity parses n, n..m, n..* or *. The empty string means
// 0..*.
func ParseMultiplicity(s string) (lower, upper int, err error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "*", "0..*":
		return 0, model.Unbounded, nil
	}

	lo, hi, ranged := strings.Cut(s, "..")
	lower, err = strconv.Atoi(strings.TrimSpace(lo))
	if err != nil || lower < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMultiplicity, s)
	}
	if !ranged {
		return lower, lower, nil
	}

	hi = strings.TrimSpace(hi)
	if hi == "*" {
		return lower, model.Unbounded, nil
	}
	upper, err = strconv.Atoi(hi)
	if err != nil || upper < lower {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMultiplicity, s)
	}
	return lower, upper, nil
}
