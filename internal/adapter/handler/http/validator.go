package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator adapts validator/v10 to echo
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator creates a new request validator
func NewCustomValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
			"code":  "INVALID_ARGUMENT",
		})
	}
	return nil
}

// bindAndValidate binds the request into req and validates it
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
			"code":  "INVALID_ARGUMENT",
		})
	}
	return c.Validate(req)
}
