package handler // handler defines http handlers

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/utils"
)

// maxBodyBytes bounds request bodies read by decodeJSON.
const maxBodyBytes = 1 << 20

var (
	errNotJSON   = errors.New("request is not JSON")
	errBadJSON   = errors.New("invalid JSON body")
	errNoSession = errors.New("invalid user_id in context")
	errNumeric   = errors.New("value is not a number")
)

// validate is shared by all handlers.  The isodate tag accepts calendar
// dates written as YYYY-MM-DD.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return utils.IsValidDate(fl.Field().String())
	})
	return v
}

// hasTag reports whether validation failed on tag for any field.
func hasTag(err error, tag string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}

// getUserID returns the id RequireLogin stored on the context.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, errNoSession
}

func isJSON(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

// decodeJSON reads a JSON object body into dst.  It returns errNotJSON when
// the content type is not JSON and errBadJSON when the body is malformed,
// not an object, or an empty object.
func decodeJSON(c echo.Context, dst any) error { return decodeBody(c, dst, false) }

// decodePartialJSON is decodeJSON for partial updates, where {} is a valid
// request that changes nothing.
func decodePartialJSON(c echo.Context, dst any) error { return decodeBody(c, dst, true) }

func decodeBody(c echo.Context, dst any, allowEmpty bool) error {
	if !isJSON(c) {
		return errNotJSON
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return errBadJSON
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return errBadJSON
	}
	if len(fields) == 0 && !allowEmpty {
		return errBadJSON
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errBadJSON
	}
	return nil
}

// numeric is a float64 that also decodes from a JSON string holding a
// number, e.g. "7.5".  An empty string decodes as zero.
type numeric float64

func (n *numeric) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
		if s == "" {
			*n = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return errNumeric
	}
	*n = numeric(f)
	return nil
}

func (n *numeric) float() *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}

func dbError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
