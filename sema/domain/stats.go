package domain

import (
	"context"
	"time"
)

// Operações reportáveis em um OpEvent.
const (
	OpRelease = "inc"
	OpAcquire = "dec"
)

// OpEvent representa uma operação executada contra um semáforo.
//
// Observação: cuidado com cardinalidade ao habilitar rastreio por nome —
// cada identificador tem 10^40 valores possíveis, então gravar contadores
// por nome sem TTL pode explodir o número de chaves no store.
type OpEvent struct {
	Name Identifier
	Op   string

	// Acquired só tem significado quando Op == OpAcquire: true se uma
	// vaga foi obtida, false se expirou por timeout.
	Acquired bool

	At time.Time
}

// StatsStore é a estratégia de persistência de estatísticas de uso.
//
// Implementações podem gravar em Redis, memória, etc. Quem registra deve
// tratar erro como best-effort: estatística nunca derruba a operação.
type StatsStore interface {
	Record(ctx context.Context, ev OpEvent) error
}
