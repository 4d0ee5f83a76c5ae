// Package domain define os tipos e contratos do contato.
//
// Este pacote não depende de net/http nem de drivers de banco.
package domain
