package signal

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Type is the discriminant carried by every signal.
type Type string

// Kind tells which member of a family a signal is.
type Kind int

const (
	KindExecute Kind = iota + 1
	KindSuccess
	KindFailed
)

// String returns the suffix used when deriving a Type for this kind.
func (k Kind) String() string {
	switch k {
	case KindExecute:
		return "Execute"
	case KindSuccess:
		return "Execute Success"
	case KindFailed:
		return "Execute Failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var kinds = []Kind{KindExecute, KindSuccess, KindFailed}

// MaxNameLength bounds family names, counted in runes.
const MaxNameLength = 128

var (
	// ErrConfiguration marks programming errors in family definitions.
	ErrConfiguration = errors.New("signal: configuration error")

	ErrInvalidName   = fmt.Errorf("%w: invalid family name", ErrConfiguration)
	ErrDuplicateName = fmt.Errorf("%w: duplicate family name", ErrConfiguration)
)

// ExecuteType derives "[name] Execute".
func ExecuteType(name string) Type { return deriveType(name, KindExecute) }

// SuccessType derives "[name] Execute Success".
func SuccessType(name string) Type { return deriveType(name, KindSuccess) }

// FailedType derives "[name] Execute Failed".
func FailedType(name string) Type { return deriveType(name, KindFailed) }

func deriveType(name string, kind Kind) Type {
	return Type("[" + name + "] " + kind.String())
}

// ParseType splits a derived Type back into its family name and kind.
// Names may not contain brackets, so the first ']' always closes the name.
func ParseType(t Type) (name string, kind Kind, ok bool) {
	s := string(t)
	if !strings.HasPrefix(s, "[") {
		return "", 0, false
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", 0, false
	}
	name, rest := s[1:end], s[end+1:]
	if ValidateName(name) != nil {
		return "", 0, false
	}
	for _, k := range kinds {
		if rest == " "+k.String() {
			return name, k, true
		}
	}
	return "", 0, false
}

type familyName struct {
	Name string `validate:"required,max=128,excludesall=[],trimmed"`
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// "trimmed" rejects names with leading or trailing whitespace.
		_ = validate.RegisterValidation("trimmed", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return false
			}
			s := fl.Field().String()
			return strings.TrimFunc(s, unicode.IsSpace) == s
		})
	})
	return validate
}

// ValidateName checks the rules every family name must satisfy:
// non-empty, at most MaxNameLength runes, no '[' or ']', no surrounding
// whitespace.
func ValidateName(name string) error {
	err := getValidator().Struct(familyName{Name: name})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %q violates %q", ErrInvalidName, name, verrs[0].Tag())
	}
	return fmt.Errorf("%w: %q: %v", ErrInvalidName, name, err)
}
