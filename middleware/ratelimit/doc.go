// Package ratelimit fornece os middlewares net/http de quota por cliente e de
// limite de concorrência usados pela API de contato.
//
// Camadas:
//
//   - domain: chaves, quotas, decisões, estatísticas e vagas (sem net/http)
//   - application: decisão allow/deny e aquisição de vaga com prazo
//   - infra: token bucket (x/time/rate), semáforo e stores de estatística
//   - ratelimit (este pacote): extração da chave e tradução para status/headers
//
// Fluxo:
//
//  1. Extrai a chave do cliente (header, X-Forwarded-For ou RemoteAddr)
//  2. Pede a decisão à camada application
//  3. Bloqueado: 429 (quota) ou 503 (sem vaga), sempre com corpo JSON
//  4. Permitido: segue para o próximo handler
package ratelimit
