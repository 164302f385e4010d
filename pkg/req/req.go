package req

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"stock-lookup/pkg/res"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError lists the request fields that are missing or out of range.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required field(s): "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid field(s): "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

func Decode[T any](body io.Reader) (*T, error) {
	var payload T
	dec := json.NewDecoder(body)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return &payload, nil
}

// IsValid checks the validate struct tags of payload.
func IsValid[T any](payload *T) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range fieldErrs {
		name := fe.Namespace()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if fe.Tag() == "required" {
			out.Missing = append(out.Missing, name)
		} else {
			out.Invalid = append(out.Invalid, name)
		}
	}
	return out
}

// HandleBody decodes and validates the request body. On failure it has
// already written a 500 error envelope and the handler should just return.
func HandleBody[T any](w *http.ResponseWriter, r *http.Request) (*T, error) {
	body, err := Decode[T](http.MaxBytesReader(*w, r.Body, maxBodyBytes))
	if err != nil {
		res.Fail(*w, err.Error(), http.StatusInternalServerError)
		return nil, err
	}
	if err := IsValid(body); err != nil {
		res.Fail(*w, err.Error(), http.StatusInternalServerError)
		return nil, err
	}
	return body, nil
}
