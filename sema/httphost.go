package sema

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"semaforo/sema/domain"

	"golang.org/x/time/rate"
)

// HostHandler traduz HTTP para o despacho de comandos do registry:
//
//	POST /sema/new
//	POST /sema/inc?arg=<nome>
//	POST /sema/dec?arg=<nome>&arg=<espera>
//
// O caminho (sem a barra inicial) é o nome do comando e cada parâmetro
// "arg" é um argumento posicional, na ordem em que aparece na URL.
func HostHandler(reg *LocalRegistry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(r.URL.Path, "/")
		args := r.URL.Query()["arg"]

		out, err := reg.Dispatch(r.Context(), name, args)
		switch {
		case errors.Is(err, ErrUnknownCommand):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrBadArgs):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrTimeout):
			// vaga não adquirida dentro da espera: desfecho previsto do
			// protocolo, o cliente decide o que fazer
			http.Error(w, "timeout", http.StatusServiceUnavailable)
		case err != nil:
			// store indisponível e afins
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write(out)
		}
	})
}

// RateLimitMiddleware aplica um orçamento global de requisições ao host
// (todas as origens compartilham o mesmo token bucket).
func RateLimitMiddleware(l *rate.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
}

// ConcurrencyGuard limita quantos comandos o host executa ao mesmo
// tempo. Importa principalmente para sema/dec, que pode segurar uma
// conexão pela espera inteira.
func ConcurrencyGuard(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	slots := make(chan struct{}, opts.Max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if opts.AcquireTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.AcquireTimeout)
				defer cancel()
			}

			select {
			case slots <- struct{}{}:
				defer func() { <-slots }()
			case <-ctx.Done():
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
