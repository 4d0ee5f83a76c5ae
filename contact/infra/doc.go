// Package infra contém as implementações concretas de domain.Store.
//
// Exemplos:
//   - PostgresStore: lib/pq, com política de TLS derivada do host
//   - SQLiteStore: modernc.org/sqlite (sem cgo), útil em desenvolvimento e testes
//
// Open escolhe a implementação pelo esquema de DATABASE_URL.
package infra
