package helper

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

/* ===============================
   Service error constructors
=================================*/

func ErrBadRequest(format string, args ...any) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(format, args...))
}

func ErrNotFound(format string, args ...any) *fiber.Error {
	return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf(format, args...))
}

func ErrForbidden(format string, args ...any) *fiber.Error {
	return fiber.NewError(fiber.StatusForbidden, fmt.Sprintf(format, args...))
}

// ErrConflict messages read "<subject> already <state>".
func ErrConflict(format string, args ...any) *fiber.Error {
	return fiber.NewError(fiber.StatusConflict, fmt.Sprintf(format, args...))
}

func ErrNotImplemented(format string, args ...any) *fiber.Error {
	return fiber.NewError(fiber.StatusNotImplemented, fmt.Sprintf(format, args...))
}

func IsConflict(err error) bool {
	var fe *fiber.Error
	return errors.As(err, &fe) && fe.Code == fiber.StatusConflict
}

// IsUniqueViolation covers the translated gorm error, raw pg 23505 and driver text.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

/* ===============================
   Validation
=================================*/

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names, not Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func ValidationFieldErrors(ve validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(ve))
	for _, fe := range ve {
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:] // drop the root struct name
		}
		out[key] = append(out[key], describeTag(fe))
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "min":
		return "must have at least " + fe.Param()
	case "max":
		return "must have at most " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	default:
		return "failed on " + fe.Tag()
	}
}

/* ===============================
   Controller side
=================================*/

// WriteError renders any service error. Causes of 500s are logged, never sent.
func WriteError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return JsonValidationError(c, ValidationFieldErrors(ve))
	}
	log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
	return JsonError(c, fiber.StatusInternalServerError, "internal server error")
}

func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrBadRequest("invalid %s", name)
	}
	return id, nil
}

// BindAndValidate parses the body into dst and runs the validator over it.
func BindAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return ErrBadRequest("invalid request body")
	}
	return Validate.Struct(dst)
}

// ErrorHandler is the app-wide fiber.Config ErrorHandler; middleware errors
// get the same envelope as controller errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return WriteError(c, err)
}
