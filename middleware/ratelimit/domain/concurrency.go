package domain

import "context"

// SlotPool limita quantas requisições usam um recurso ao mesmo tempo
// (aqui, conexões do banco).
//
// Acquire bloqueia até haver vaga ou ctx terminar; o release devolvido deve
// ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
