package sema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"semaforo/sema/application"
	"semaforo/sema/domain"
)

// Nomes fixos dos comandos. Todo host os registra com exatamente estes
// nomes; não há flag nem configuração para mudá-los.
const (
	CmdNew = "sema/new"
	CmdInc = "sema/inc"
	CmdDec = "sema/dec"
)

var (
	ErrUnknownCommand = errors.New("sema: comando desconhecido")
	ErrBadArgs        = errors.New("sema: argumentos inválidos")
)

// Handler executa um comando com argumentos posicionais, como no
// dispatch do host. O []byte devolvido é a resposta crua do comando.
type Handler func(ctx context.Context, args []string) ([]byte, error)

// Registry é o ponto de injeção do host: quem roda embutido passa a
// tabela de comandos do host; quem roda standalone passa um
// LocalRegistry. A escolha não muda o comportamento das operações.
type Registry interface {
	Register(name string, h Handler)
}

type Options struct {
	Service application.Service

	// Stats, se presente, registra cada operação. É best-effort: erro
	// de estatística nunca falha o comando.
	Stats domain.StatsStore

	// MaxWait limita a espera aceita em sema/dec (0 = sem teto).
	// É política do host; o núcleo em si não impõe limite superior.
	MaxWait time.Duration
}

// Bind registra as três operações do semáforo no registry dado.
func Bind(reg Registry, opts Options) {
	svc := opts.Service

	record := func(ctx context.Context, ev domain.OpEvent) {
		if opts.Stats == nil {
			return
		}
		ev.At = time.Now()
		_ = opts.Stats.Record(ctx, ev)
	}

	reg.Register(CmdNew, func(_ context.Context, args []string) ([]byte, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: sema/new não recebe argumentos", ErrBadArgs)
		}
		id, err := svc.New()
		if err != nil {
			return nil, err
		}
		return []byte(id), nil
	})

	reg.Register(CmdInc, func(ctx context.Context, args []string) ([]byte, error) {
		if len(args) != 1 || args[0] == "" {
			return nil, fmt.Errorf("%w: uso: sema/inc <nome>", ErrBadArgs)
		}
		name := domain.Identifier(args[0])
		if err := svc.Release(ctx, name); err != nil {
			return nil, err
		}
		record(ctx, domain.OpEvent{Name: name, Op: domain.OpRelease})
		return []byte("OK"), nil
	})

	reg.Register(CmdDec, func(ctx context.Context, args []string) ([]byte, error) {
		if len(args) != 2 || args[0] == "" {
			return nil, fmt.Errorf("%w: uso: sema/dec <nome> <espera>", ErrBadArgs)
		}
		wait, err := ParseWait(args[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
		}
		if opts.MaxWait > 0 && wait > opts.MaxWait {
			wait = opts.MaxWait
		}

		name := domain.Identifier(args[0])
		v, err := svc.Acquire(ctx, name, wait)
		if err != nil {
			if errors.Is(err, domain.ErrTimeout) {
				record(ctx, domain.OpEvent{Name: name, Op: domain.OpAcquire, Acquired: false})
			}
			return nil, err
		}
		record(ctx, domain.OpEvent{Name: name, Op: domain.OpAcquire, Acquired: true})
		return v, nil
	})
}

// ParseWait aceita a sintaxe de duração do Go ("500ms", "2s") e também
// segundos "nus", inteiros ou fracionários ("1", "0.5"), que é como
// hosts no estilo Redis expressam o timeout de um blocking pop.
func ParseWait(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("espera inválida: %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// LocalRegistry é a tabela de comandos usada quando não há host por
// perto: o substituto standalone/debug, com despacho explícito em vez
// de nomes globais implícitos.
type LocalRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{handlers: make(map[string]Handler)}
}

func (r *LocalRegistry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Dispatch executa o comando name com os argumentos dados.
func (r *LocalRegistry) Dispatch(ctx context.Context, name string, args []string) ([]byte, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return h(ctx, args)
}

// Names lista os comandos registrados, em ordem estável.
func (r *LocalRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
