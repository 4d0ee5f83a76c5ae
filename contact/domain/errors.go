package domain

import (
	"errors"
	"fmt"
)

// ValidationError indica que um campo enviado pelo cliente não respeita as regras.
// Message é o texto devolvido ao cliente (ex: "Invalid name").
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field
}

var (
	ErrInvalidName    = &ValidationError{Field: "name", Message: "Invalid name"}
	ErrInvalidEmail   = &ValidationError{Field: "email", Message: "Invalid email"}
	ErrInvalidMessage = &ValidationError{Field: "message", Message: "Invalid message"}
)

// StorageError envolve qualquer falha do banco (conexão, constraint, scan).
//
// A causa fica só no log do servidor; o cliente recebe uma mensagem genérica.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// WrapStorage devolve nil quando err é nil.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorage reporta se err (ou algo na cadeia) é um StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// AsValidation extrai o ValidationError da cadeia, se houver.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
