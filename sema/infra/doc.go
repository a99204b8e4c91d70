// Package infra traz as implementações concretas dos contratos do
// semáforo: o store de listas em Redis, o store em memória para
// execução standalone/testes e as estratégias de estatísticas.
package infra
