package domain

import (
	"fmt"
	"time"

	"contact-stream/internal/jsoncodec"
)

// TimestampLayout é o formato ISO-8601 em UTC com milissegundos
// (o mesmo de Date.prototype.toISOString).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Contact é o registro canônico de uma submissão, já persistido.
//
// ID e CreatedAt são atribuídos pelo banco no insert. Registros nunca são
// alterados nem removidos por este serviço.
type Contact struct {
	ID        int64
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

type contactJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

func (c Contact) MarshalJSON() ([]byte, error) {
	return jsoncodec.Marshal(contactJSON{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Message:   c.Message,
		CreatedAt: FormatTimestamp(c.CreatedAt),
	})
}

func (c *Contact) UnmarshalJSON(data []byte) error {
	var raw contactJSON
	if err := jsoncodec.Unmarshal(data, &raw); err != nil {
		return err
	}
	at, err := ParseTimestamp(raw.CreatedAt)
	if err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	*c = Contact{
		ID:        raw.ID,
		Name:      raw.Name,
		Email:     raw.Email,
		Message:   raw.Message,
		CreatedAt: at,
	}
	return nil
}

// FormatTimestamp serializa t em UTC com precisão de milissegundos.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp aceita o formato de FormatTimestamp e, como fallback, RFC3339Nano.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Submission é o corpo bruto recebido do cliente.
//
// Os campos são `any` de propósito: o cliente pode mandar qualquer tipo JSON
// e a validação é quem decide se é texto.
type Submission struct {
	Name    any `json:"name"`
	Email   any `json:"email"`
	Message any `json:"message"`
}

// Fields são os valores já validados e aparados (trim), prontos para o insert.
type Fields struct {
	Name    string
	Email   string
	Message string
}
