package domain

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Order values accepted by the feed's orderby parameter.
const (
	OrderByTime      = "time"
	OrderByMagnitude = "magnitude"
)

// FilterSettings are the user-chosen query filters. Values are kept as the
// strings the user entered; they are passed through to the feed verbatim.
type FilterSettings struct {
	MinMagnitude string `json:"minmag" validate:"required,numeric"`
	OrderBy      string `json:"orderby" validate:"required,oneof=time magnitude"`
	ResultLimit  string `json:"limit" validate:"required,positiveint"`
}

// DefaultFilterSettings mirrors the settings screen defaults.
func DefaultFilterSettings() FilterSettings {
	return FilterSettings{
		MinMagnitude: "6",
		OrderBy:      OrderByMagnitude,
		ResultLimit:  "10",
	}
}

// WithDefaults returns a copy with every empty field taken from d.
func (s FilterSettings) WithDefaults(d FilterSettings) FilterSettings {
	if s.MinMagnitude == "" {
		s.MinMagnitude = d.MinMagnitude
	}
	if s.OrderBy == "" {
		s.OrderBy = d.OrderBy
	}
	if s.ResultLimit == "" {
		s.ResultLimit = d.ResultLimit
	}
	return s
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func settingsValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("positiveint", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Field().String())
			return err == nil && n > 0
		})
		validate = v
	})
	return validate
}

// Validate reports the first invalid field, naming it by its query parameter.
func (s FilterSettings) Validate() error {
	err := settingsValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid %s %q: failed %s", paramName(fe.Field()), fe.Value(), fe.Tag())
	}
	return fmt.Errorf("validate settings: %w", err)
}

func paramName(field string) string {
	switch field {
	case "MinMagnitude":
		return "minmag"
	case "OrderBy":
		return "orderby"
	case "ResultLimit":
		return "limit"
	default:
		return field
	}
}
