// Package infra implementa os contratos de domain:
//
//   - Store: token bucket por chave com golang.org/x/time/rate
//   - ChanPool: semáforo para as rotas que usam o banco
//   - MemoryStatsStore, RedisStatsStore e FanOutStats: estatísticas das decisões
package infra
