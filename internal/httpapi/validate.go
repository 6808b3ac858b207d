// Package httpapi exposes the fleet inventory REST surface: chi routing,
// request validation, domain error mapping, and the server lifecycle.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Issue is one field-level validation failure. Field is part-qualified
// (body.name, params.id); Code is machine-readable.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Issue codes reported to clients.
const (
	codeTooSmall      = "too_small"
	codeTooBig        = "too_big"
	codeInvalidType   = "invalid_type"
	codeInvalidFormat = "invalid_format"
	codeInvalidValue  = "invalid_value"
	codeUnrecognized  = "unrecognized_keys"
)

// ValidationError aggregates every issue found in a request. It always maps
// to a 400 response.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d issue(s)", len(e.Issues))
}

func singleIssue(field, message, code string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Field: field, Message: message, Code: code}}}
}

var (
	ipv4Pattern = regexp.MustCompile(`^(25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)(\.(25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)){3}$`)
	uidPattern  = regexp.MustCompile(`^\d{1,19}$`)
)

// validate is the shared validator instance. Field names in reported issues
// come from json tags, not Go identifiers.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("ipv4_dotted", func(fl validator.FieldLevel) bool {
		return ipv4Pattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("uid_digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !uidPattern.MatchString(s) {
			return false
		}
		// 19 digits can still overflow int64.
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	})
	return v
}

// decodeBody decodes a strict JSON body into dst and validates it. Unknown
// fields, malformed JSON, wrong types, and constraint violations all come
// back as a single aggregated *ValidationError naming every failing field,
// not just the first one.
func decodeBody(r *http.Request, dst any) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return singleIssue("body", "Failed to read request body", codeInvalidType)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return singleIssue("body", "Request body is required", codeInvalidType)
	}

	// Decode the raw object first so every unknown key can be reported,
	// not just the first one a streaming decoder would stop at.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return decodeIssue(err)
	}
	issues := unknownKeyIssues(fields, dst)

	if err := json.Unmarshal(raw, dst); err != nil {
		issues = append(issues, decodeIssue(err).Issues...)
		return &ValidationError{Issues: issues}
	}

	if err := validateBody(dst); err != nil {
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			return err
		}
		issues = append(issues, vErr.Issues...)
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// unknownKeyIssues reports one unrecognized_keys issue per body key that the
// destination schema does not declare, in stable order.
func unknownKeyIssues(fields map[string]json.RawMessage, dst any) []Issue {
	allowed := jsonFieldSet(reflect.TypeOf(dst))

	unknown := make([]string, 0)
	for key := range fields {
		if _, ok := allowed[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	issues := make([]Issue, 0, len(unknown))
	for _, key := range unknown {
		issues = append(issues, Issue{
			Field:   "body." + key,
			Message: fmt.Sprintf("Unrecognized key: %q", key),
			Code:    codeUnrecognized,
		})
	}
	return issues
}

// jsonFieldSet collects the json field names declared by a request struct.
func jsonFieldSet(t reflect.Type) map[string]struct{} {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	set := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

func decodeIssue(err error) *ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := "body"
		if typeErr.Field != "" {
			field = "body." + typeErr.Field
		}
		return singleIssue(field,
			fmt.Sprintf("Expected %s, received %s", typeErr.Type.Kind(), typeErr.Value),
			codeInvalidType)
	}
	return singleIssue("body", "Request body is not valid JSON", codeInvalidType)
}

// collectValidation merges the validation outcomes of multiple request parts
// (path parameters, body) into one aggregated error, so a request failing in
// several parts reports every issue at once. Any non-validation error wins
// immediately.
func collectValidation(errs ...error) error {
	var issues []Issue
	for _, err := range errs {
		if err == nil {
			continue
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			return err
		}
		issues = append(issues, vErr.Issues...)
	}
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

// validateBody runs struct-tag validation and converts the result into
// part-qualified issues.
func validateBody(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, fieldIssue(fe))
	}
	return &ValidationError{Issues: issues}
}

// fieldIssue maps one validator failure onto the issue taxonomy.
func fieldIssue(fe validator.FieldError) Issue {
	// Namespace is Struct.field.subfield; replace the struct root with "body".
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = "body." + path[i+1:]
	} else {
		path = "body"
	}

	switch fe.Tag() {
	case "required":
		return Issue{Field: path, Message: "Required", Code: codeInvalidType}
	case "min":
		return Issue{
			Field:   path,
			Message: fmt.Sprintf("String must contain at least %s character(s)", fe.Param()),
			Code:    codeTooSmall,
		}
	case "max":
		return Issue{
			Field:   path,
			Message: fmt.Sprintf("String must contain at most %s character(s)", fe.Param()),
			Code:    codeTooBig,
		}
	case "gt":
		return Issue{
			Field:   path,
			Message: fmt.Sprintf("Number must be greater than %s", fe.Param()),
			Code:    codeTooSmall,
		}
	case "email":
		return Issue{Field: path, Message: "Invalid email address", Code: codeInvalidFormat}
	case "uuid":
		return Issue{Field: path, Message: "Invalid UUID", Code: codeInvalidFormat}
	case "ipv4_dotted":
		return Issue{Field: path, Message: "Invalid IPv4 address", Code: codeInvalidFormat}
	case "uid_digits":
		return Issue{Field: path, Message: "UID must be a numeric string of up to 19 digits", Code: codeInvalidFormat}
	case "oneof":
		return Issue{
			Field:   path,
			Message: fmt.Sprintf("Invalid value, expected one of: %s", strings.ReplaceAll(fe.Param(), " ", " | ")),
			Code:    codeInvalidValue,
		}
	default:
		return Issue{
			Field:   path,
			Message: fmt.Sprintf("Invalid value for constraint %q", fe.Tag()),
			Code:    codeInvalidValue,
		}
	}
}

// parseUUIDParam extracts and parses a UUID path parameter.
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, singleIssue("params."+name, "Invalid UUID", codeInvalidFormat)
	}
	return id, nil
}

// parseIntParam extracts and parses a positive integer path parameter.
func parseIntParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, singleIssue("params."+name, "Expected number, received string", codeInvalidType)
	}
	if v <= 0 {
		return 0, singleIssue("params."+name, "Number must be greater than 0", codeTooSmall)
	}
	return v, nil
}
