// Package domain define os contratos do rate limit por cliente e do limite de
// concorrência: chaves, quotas, decisões, estatísticas e vagas.
//
// Não depende de net/http nem de implementações concretas.
package domain
