// Package contact agrupa o núcleo do serviço de contato: validação, persistência
// e o caso de uso que publica cada registro novo para os clientes conectados.
//
// Visão geral (camadas):
//
//   - domain: tipos (Contact, Submission), regras de validação e contratos (Store)
//   - application: casos de uso (Submit, ListRecent, Health) sem net/http
//   - infra: implementações concretas do Store (PostgreSQL via lib/pq, SQLite via modernc)
//
// Fluxo de uma submissão:
//
//  1. Valida nome, email e mensagem (nessa ordem; só o primeiro erro é reportado)
//  2. Insere no banco, que atribui id e created_at
//  3. Publica o registro canônico no broadcast (evento "contact:new")
//  4. Devolve o registro ao chamador, independente da entrega do broadcast
package contact
