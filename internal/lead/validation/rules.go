// Package validation holds the lead field rules shared by the landing page form and the submission endpoint.
package validation

import (
	"regexp"
	"strings"
)

// Field names as used in error maps.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// Messages returned for failing fields.
const (
	MsgNameRequired  = "name is required"
	MsgEmailRequired = "email is required"
	MsgEmailInvalid  = "invalid email"
	MsgPhoneRequired = "phone is required"
	MsgPhoneInvalid  = "invalid phone"
)

// Kind classifies a field failure.
type Kind string

const (
	KindRequired Kind = "required"
	KindFormat   Kind = "format"
)

// FieldError is a single failing field.
type FieldError struct {
	Kind    Kind
	Message string
}

// Errors maps a field name to its failure. A nil or empty map means valid.
type Errors map[string]FieldError

// Valid reports whether no field failed.
func (e Errors) Valid() bool { return len(e) == 0 }

// HasKind reports whether any field failed with the given kind.
func (e Errors) HasKind(k Kind) bool {
	for _, fe := range e {
		if fe.Kind == k {
			return true
		}
	}
	return false
}

// Messages flattens the errors into field -> message.
func (e Errors) Messages() map[string]string {
	out := make(map[string]string, len(e))
	for f, fe := range e {
		out[f] = fe.Message
	}
	return out
}

// Fields is a candidate record. Values may be blank.
type Fields struct {
	Name  string
	Email string
	Phone string
}

// Deliberately permissive x@y.z shape; not RFC 5322.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var phonePattern = regexp.MustCompile(`^[0-9\s+\-()]+$`)

// Validate checks every field independently and returns one entry per failing field.
func Validate(f Fields) Errors {
	errs := Errors{}
	if strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = FieldError{Kind: KindRequired, Message: MsgNameRequired}
	}
	if err, ok := checkEmail(f.Email); !ok {
		errs[FieldEmail] = err
	}
	if err, ok := checkPhone(f.Phone); !ok {
		errs[FieldPhone] = err
	}
	return errs
}

// ValidEmail reports whether s has the x@y.z shape. s is matched as given: surrounding
// whitespace makes it invalid. Trimming happens only in Normalize.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s only holds digits, whitespace, '+', '-', '(' and ')'.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

func checkEmail(s string) (FieldError, bool) {
	if strings.TrimSpace(s) == "" {
		return FieldError{Kind: KindRequired, Message: MsgEmailRequired}, false
	}
	if !ValidEmail(s) {
		return FieldError{Kind: KindFormat, Message: MsgEmailInvalid}, false
	}
	return FieldError{}, true
}

func checkPhone(s string) (FieldError, bool) {
	if strings.TrimSpace(s) == "" {
		return FieldError{Kind: KindRequired, Message: MsgPhoneRequired}, false
	}
	if !ValidPhone(s) {
		return FieldError{Kind: KindFormat, Message: MsgPhoneInvalid}, false
	}
	return FieldError{}, true
}

// Normalize trims every field and lower-cases the email.
func Normalize(f Fields) Fields {
	return Fields{
		Name:  strings.TrimSpace(f.Name),
		Email: strings.ToLower(strings.TrimSpace(f.Email)),
		Phone: strings.TrimSpace(f.Phone),
	}
}
