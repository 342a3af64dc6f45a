package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"jurisgate/internal/model"
)

// MaxIDLength bounds request ids and client-chosen object ids.
const MaxIDLength = 128

var validate = newValidate()

type enumerated interface {
	Valid() bool
}

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(enumerated)
		return ok && e.Valid()
	})
	mustRegister(v, "object_id", func(fl validator.FieldLevel) bool {
		return validID(fl.Field().String())
	})
	mustRegister(v, "timestamp", func(fl validator.FieldLevel) bool {
		_, err := ParseTimestamp(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validator: register %s: %v", tag, err))
	}
}

func validID(id string) bool {
	if id == "" || len(id) > MaxIDLength {
		return false
	}
	return strings.IndexFunc(id, unicode.IsSpace) < 0
}

// ParseTimestamp accepts an RFC 3339 timestamp or a bare YYYY-MM-DD date.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// ReadMeta extracts the request id and case id from a raw payload. It is the
// only check that runs before idempotency; a rejection here has no request
// id to be recorded under.
func ReadMeta(raw json.RawMessage) (Meta, Decision) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Meta{}, reject(model.CodeSchemaInvalid, "payload", "payload must be a JSON object")
	}

	var m Meta
	if rid, ok := fields["request_id"]; ok {
		_ = json.Unmarshal(rid, &m.RequestID)
	}
	if cid, ok := fields["case_id"]; ok {
		_ = json.Unmarshal(cid, &m.CaseID)
	}

	switch {
	case m.RequestID == "":
		return m, reject(model.CodeTraceRequired, "request_id", "request_id is required")
	case !validID(m.RequestID):
		return m, reject(model.CodeTraceRequired, "request_id",
			"request_id must be at most %d characters without whitespace", MaxIDLength)
	}
	return m, accept()
}

// Decode parses raw into the operation named by tool and checks its shape.
// A rejected Decision carries SCHEMA_INVALID and the offending field path.
func Decode(tool model.ToolName, raw json.RawMessage) (Operation, Decision) {
	op := newOperation(tool)
	if op == nil {
		return nil, reject(model.CodeSchemaInvalid, "toolName", "unknown tool %q", string(tool))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(op); err != nil {
		return nil, decodeError(err)
	}
	if err := validate.Struct(op); err != nil {
		return nil, validationError(err)
	}

	if q, ok := op.(*TraceQuery); ok && q.Filters != nil && q.Filters.DateFrom != "" {
		q.Filters.From, _ = ParseTimestamp(q.Filters.DateFrom)
	}
	return op, accept()
}

func decodeError(err error) Decision {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return reject(model.CodeSchemaInvalid, typeErr.Field, "%s must be %s, got %s",
			fieldOrPayload(typeErr.Field), typeErr.Type.Kind(), typeErr.Value)
	}
	return reject(model.CodeSchemaInvalid, "payload", "payload is not valid JSON: %v", err)
}

func validationError(err error) Decision {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return reject(model.CodeSchemaInvalid, "payload", "%v", err)
	}
	fe := verrs[0]
	field := fieldPath(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return reject(model.CodeSchemaInvalid, field, "%s is required", field)
	case "enum":
		return reject(model.CodeSchemaInvalid, field, "%s: unknown value %v", field, fe.Value())
	case "min":
		return reject(model.CodeSchemaInvalid, field, "%s needs at least %s entries", field, fe.Param())
	case "max":
		return reject(model.CodeSchemaInvalid, field, "%s exceeds %s characters", field, fe.Param())
	case "unique":
		return reject(model.CodeSchemaInvalid, field, "%s contains duplicates", field)
	case "datetime":
		return reject(model.CodeSchemaInvalid, field, "%s must be a YYYY-MM-DD date", field)
	case "timestamp":
		return reject(model.CodeSchemaInvalid, field, "%s must be an RFC 3339 timestamp or YYYY-MM-DD date", field)
	case "object_id":
		return reject(model.CodeSchemaInvalid, field, "%s must be at most %d characters without whitespace", field, MaxIDLength)
	default:
		return reject(model.CodeSchemaInvalid, field, "%s failed %s", field, fe.Tag())
	}
}

// fieldPath turns a validator namespace ("DocIngest.Meta.case_id") into the
// wire path ("case_id").
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	out := parts[:0]
	for i, p := range parts {
		if i == 0 || p == "Meta" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func fieldOrPayload(f string) string {
	if f == "" {
		return "payload"
	}
	return f
}
