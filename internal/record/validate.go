package record

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord marks records rejected before anything is written to
// the store.
var ErrInvalidRecord = errors.New("invalid record")

// ValidationError reports which required fields a record is missing.
type ValidationError struct {
	SourceID string
	Fields   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %q: missing or invalid fields: %s", e.SourceID, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field paths with their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks the required fields of a record: patient name, per-visit
// type and start time, per-allergy allergen, complete addresses, provider
// names, and the metadata source id.
func Validate(r *Record) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldPath(fe.Namespace()))
	}
	return &ValidationError{SourceID: r.Metadata.SourceID, Fields: fields}
}

func fieldPath(ns string) string {
	ns = strings.TrimPrefix(ns, "Record.")
	ns = strings.TrimPrefix(ns, "MedicalData.")
	return ns
}
