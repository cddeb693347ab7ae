// Package form validates website form submissions and turns them into
// notification emails.
package form

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Form types with their own field lists and subjects.
const (
	TypeContact = "contact"
	TypeQuery   = "query"
	TypeCareer  = "career"
)

const (
	minMessageLen  = 5
	minPhoneDigits = 10
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

var subjects = map[string]string{
	TypeContact: "Contact Form Submission",
	TypeQuery:   "Query Form Submission",
	TypeCareer:  "Career Form Submission",
}

const defaultSubject = "Website Form Submission"

// allowedFields lists, per form type, the fields copied into the email and
// their order. Anything else in the body is ignored.
var allowedFields = map[string][]string{
	TypeContact: {"name", "email", "phone", "mobile", "subject", "message"},
	TypeQuery: {
		"name", "designation", "organization", "officeAddress", "city",
		"email", "telephone", "phone", "otherProfessionalUpdates", "subject", "message",
	},
	TypeCareer: {"name", "email", "phone", "mobile", "position", "experience", "qualification", "resume", "message"},
}

var defaultFields = []string{"name", "email", "phone", "mobile", "subject", "message"}

// ValidationError carries a message that is safe to show to the visitor.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// Submission is a decoded form body. Values are kept as text.
type Submission struct {
	FormType string
	values   map[string]string
}

// Field is one labelled value of a submission.
type Field struct {
	Label string
	Value string
}

// Parse decodes a JSON object body. Scalar values are converted to text;
// nested objects and arrays are dropped.
func Parse(body []byte) (*Submission, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, invalid("Invalid request body.")
	}
	if raw == nil {
		return nil, invalid("Invalid request body.")
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := scalarText(v); ok {
			values[k] = s
		}
	}
	return &Submission{FormType: values["formType"], values: values}, nil
}

func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Value returns the raw value of a field.
func (s *Submission) Value(key string) string {
	return s.values[key]
}

// Phone is the phone number, taken from "phone" or else "mobile".
func (s *Submission) Phone() string {
	if p := s.values["phone"]; p != "" {
		return p
	}
	return s.values["mobile"]
}

// Validate checks the submission and returns a *ValidationError
// describing the first problem found.
func (s *Submission) Validate() error {
	message := s.values["message"]
	email := s.values["email"]
	phone := s.Phone()
	career := s.FormType == TypeCareer

	if s.FormType == "" || email == "" || phone == "" || (!career && message == "") {
		return invalid("Missing required fields.")
	}
	if !emailPattern.MatchString(email) {
		return invalid("Invalid email address.")
	}
	if countDigits(phone) < minPhoneDigits {
		return invalid("Invalid phone number.")
	}
	if !career && utf8.RuneCountInString(message) < minMessageLen {
		return invalid("Message too short.")
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// Subject returns the email subject for the form type.
func (s *Submission) Subject() string {
	if subj, ok := subjects[s.FormType]; ok {
		return subj
	}
	return defaultSubject
}

// Fields returns the allow-listed, non-empty fields in display order.
func (s *Submission) Fields() []Field {
	keys, ok := allowedFields[s.FormType]
	if !ok {
		keys = defaultFields
	}

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		v := strings.TrimSpace(s.values[k])
		if v == "" {
			continue
		}
		fields = append(fields, Field{Label: Label(k), Value: v})
	}
	return fields
}

// Label turns a camelCase field name into a title, "officeAddress" into
// "Office Address".
func Label(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// String is used in logs; it never includes field values.
func (s *Submission) String() string {
	return fmt.Sprintf("form(%s, %d fields)", s.FormType, len(s.values))
}
