package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	NameMinLen    = 2
	NameMaxLen    = 80
	EmailMaxLen   = 160
	MessageMinLen = 5
	MessageMaxLen = 2000
)

// emailChar é qualquer caractere exceto @ e espaço. O \s do RE2 é só ASCII,
// então a classe inclui também \v, os espaços Unicode (Zs), U+2028, U+2029 e U+FEFF.
const emailChar = `[^\s\x{0B}\p{Zs}\x{2028}\x{2029}\x{FEFF}@]`

// emailPattern é propositalmente simples (local@dominio.tld), não é RFC 5322.
var emailPattern = regexp.MustCompile(`^` + emailChar + `+@` + emailChar + `+\.` + emailChar + `+$`)

// trim remove espaços Unicode e o BOM (U+FEFF) das pontas.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

var (
	nameRule    = fmt.Sprintf("min=%d,max=%d", NameMinLen, NameMaxLen)
	emailRule   = fmt.Sprintf("max=%d,contactemail", EmailMaxLen)
	messageRule = fmt.Sprintf("min=%d,max=%d", MessageMinLen, MessageMaxLen)
)

// Validate confere nome, email e mensagem nessa ordem e devolve os valores aparados.
//
// Apenas a primeira falha é reportada. O limite do email é medido antes do trim,
// enquanto nome e mensagem são medidos depois.
func Validate(s Submission) (Fields, error) {
	name, ok := s.Name.(string)
	if !ok {
		return Fields{}, ErrInvalidName
	}
	name = trim(name)
	if validate.Var(name, nameRule) != nil {
		return Fields{}, ErrInvalidName
	}

	email, ok := s.Email.(string)
	if !ok {
		return Fields{}, ErrInvalidEmail
	}
	if validate.Var(email, emailRule) != nil {
		return Fields{}, ErrInvalidEmail
	}
	email = trim(email)

	message, ok := s.Message.(string)
	if !ok {
		return Fields{}, ErrInvalidMessage
	}
	message = trim(message)
	if validate.Var(message, messageRule) != nil {
		return Fields{}, ErrInvalidMessage
	}

	return Fields{Name: name, Email: email, Message: message}, nil
}
