//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../../mocks/mock_store.go -package=mocks
package domain

import "context"

// DefaultListLimit é o máximo de registros devolvidos por ListRecent.
const DefaultListLimit = 200

// Store é o gateway de persistência do contato.
//
// Implementações devem devolver *StorageError em qualquer falha do banco.
type Store interface {
	// Insert grava um registro numa única operação atômica; o banco atribui
	// id e created_at e o registro completo é devolvido.
	Insert(ctx context.Context, f Fields) (Contact, error)
	// ListRecent devolve até limit registros, do mais novo para o mais antigo
	// (empate em created_at resolvido por id decrescente).
	ListRecent(ctx context.Context, limit int) ([]Contact, error)
	// Ping executa uma consulta trivial para checar a conexão.
	Ping(ctx context.Context) error
	Close() error
}

// ClampLimit normaliza o limite pedido para o intervalo (0, DefaultListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
