// Package httpapi é a superfície HTTP do serviço de contato.
//
// Rotas (na raiz e também sob /api):
//
//	GET  /health          {ok, uptime, db}
//	POST /contact         cria um contato (201) ou {"error": ...}
//	GET  /contact         até 200 contatos, mais novos primeiro
//	GET  /contact/stream  Server-Sent Events: contact:new e ping
//
// Só na raiz: /, /docs, /docs.json e /metrics (quando habilitado).
//
// Todo erro sai como JSON {"error": "..."}; causas internas ficam no log.
package httpapi
