package domain

import (
	"context"
	"errors"
	"time"
)

// Tamanhos fixos do identificador. São constantes do protocolo,
// não configuráveis em runtime: todo participante precisa gerar e
// reconhecer o mesmo formato.
const (
	// SegmentLength é a quantidade de dígitos decimais por segmento.
	SegmentLength = 8
	// SegmentCount é a quantidade de segmentos separados por "-".
	SegmentCount = 5
)

// Identifier nomeia uma instância de semáforo dentro do store externo.
//
// É uma string opaca no formato "S1-S2-S3-S4-S5" (cada Si com
// SegmentLength dígitos decimais). A unicidade é probabilística: o
// espaço tem 10^40 valores, então colisão é desprezível, mas não
// impossível. Quem cria o semáforo distribui o identificador para os
// demais participantes por fora (não há registro nem descoberta aqui).
type Identifier string

// ErrTimeout indica que um acquire expirou sem conseguir uma vaga.
//
// Não é falha de store: é um desfecho distinguível que o chamador deve
// tratar como "vaga não adquirida". Nenhuma vaga é consumida nesse caso.
var ErrTimeout = errors.New("sema: timeout esperando por uma vaga")

// ListStore é o contrato mínimo que o store externo precisa cumprir:
// duas operações de lista nomeada. Todo o estado do semáforo vive lá;
// este núcleo não guarda nada entre chamadas.
//
// Garantias exigidas da implementação (sem elas o semáforo não é correto):
//
//   - Push é atômico em relação a pushes e pops concorrentes na mesma lista.
//   - BlockingPop entrega cada entrada empurrada a no máximo um chamador,
//     mesmo com vários esperando na mesma lista.
//   - Push nunca bloqueia por contenção (é append puro).
//   - BlockingPop respeita o limite de espera; bloqueio sem limite não é
//     permitido pelo contrato.
type ListStore interface {
	// Push insere value no fim da lista list. O conteúdo de value é
	// irrelevante para o semáforo; só o comprimento da lista importa.
	Push(ctx context.Context, list string, value []byte) error

	// BlockingPop remove e devolve a entrada mais antiga de list,
	// esperando até wait se a lista estiver vazia. Devolve ErrTimeout
	// se nada chegar a tempo. wait <= 0 significa poll sem bloqueio:
	// devolve uma entrada disponível agora ou ErrTimeout imediatamente.
	BlockingPop(ctx context.Context, list string, wait time.Duration) ([]byte, error)
}
