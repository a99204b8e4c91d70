package application

import (
	"context"
	"errors"
	"time"

	"semaforo/sema/domain"
)

var defaultPayload = []byte("1")

// ErrNoStore indica que o Service foi usado sem um ListStore configurado.
var ErrNoStore = errors.New("sema: Store não configurado")

// Service concentra as três operações do semáforo sobre um ListStore.
//
// O serviço é stateless: toda a contagem de vagas vive na lista do store
// externo (uma entrada na lista = uma vaga disponível). Não há campo de
// capacidade — a capacidade é implícita em quantos Release o criador fizer.
type Service struct {
	Store domain.ListStore

	// Generator gera identificadores em New. Se nil, usa o padrão
	// (crypto/rand).
	Generator *Generator

	// Payload é o valor empurrado na lista a cada Release. O conteúdo é
	// irrelevante (só o comprimento da lista importa). Se nil, usa "1".
	Payload []byte
}

// New devolve um identificador novo. Não cria nada no store: a lista
// nasce no primeiro Release. Um Acquire só pode ter sucesso depois de
// pelo menos um Release com o mesmo nome.
func (s Service) New() (domain.Identifier, error) {
	gen := s.Generator
	if gen == nil {
		gen = &Generator{}
	}
	return gen.Identifier()
}

// Release devolve uma vaga: um Push na lista name. Cada chamada soma
// exatamente uma vaga (não é idempotente) e pode acontecer antes de
// existir qualquer consumidor — as vagas apenas acumulam.
func (s Service) Release(ctx context.Context, name domain.Identifier) error {
	if s.Store == nil {
		return ErrNoStore
	}
	payload := s.Payload
	if payload == nil {
		payload = defaultPayload
	}
	return s.Store.Push(ctx, string(name), payload)
}

// Acquire consome uma vaga: um BlockingPop na lista name, esperando até
// wait. O valor devolvido não carrega significado (é o payload de algum
// Release) e pode ser descartado.
//
//   - wait <= 0: poll sem bloqueio — domain.ErrTimeout na hora se não
//     houver vaga disponível.
//   - timeout: domain.ErrTimeout, e nenhuma vaga é consumida.
//
// Erros do store são propagados sem retry e sem tradução.
func (s Service) Acquire(ctx context.Context, name domain.Identifier, wait time.Duration) ([]byte, error) {
	if s.Store == nil {
		return nil, ErrNoStore
	}
	return s.Store.BlockingPop(ctx, string(name), wait)
}
