// Package application contém os casos de uso do contato: Submit, ListRecent e
// Health.
//
// Depende de domain (validação, Store) e de um Publisher para o broadcast;
// não conhece net/http nem o banco concreto.
package application
