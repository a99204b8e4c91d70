package infra

import (
	"context"
	"time"

	"semaforo/sema/domain"

	"github.com/redis/go-redis/v9"
)

// RedisListStore implementa domain.ListStore sobre listas do Redis:
// Push vira RPUSH e BlockingPop vira BLPOP (LPOP quando wait <= 0).
//
// A atomicidade exigida pelo contrato vem do próprio Redis: BLPOP
// entrega cada entrada a exatamente um cliente bloqueado.
type RedisListStore struct {
	rdb redis.UniversalClient

	// prefix é prefixado em toda chave de lista (ex: "sema:") para
	// separar o namespace dos semáforos de outras chaves do banco.
	prefix string
}

type RedisListOption func(*RedisListStore)

func WithKeyPrefix(prefix string) RedisListOption {
	return func(s *RedisListStore) { s.prefix = prefix }
}

func NewRedisListStore(rdb redis.UniversalClient, opts ...RedisListOption) *RedisListStore {
	s := &RedisListStore{rdb: rdb}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRedisListStoreURL conecta via URL (redis://...) e valida a conexão
// com um PING antes de devolver o store.
func NewRedisListStoreURL(ctx context.Context, uri string, opts ...RedisListOption) (*RedisListStore, error) {
	connOpts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(connOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisListStore(client, opts...), nil
}

func (s *RedisListStore) key(list string) string { return s.prefix + list }

func (s *RedisListStore) Push(ctx context.Context, list string, value []byte) error {
	return s.rdb.RPush(ctx, s.key(list), value).Err()
}

func (s *RedisListStore) BlockingPop(ctx context.Context, list string, wait time.Duration) ([]byte, error) {
	if wait <= 0 {
		v, err := s.rdb.LPop(ctx, s.key(list)).Bytes()
		if err == redis.Nil {
			return nil, domain.ErrTimeout
		}
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	// O BLPOP tem granularidade de segundos; arredonda para cima para
	// nunca esperar menos do que o chamador pediu.
	if rem := wait % time.Second; rem != 0 {
		wait = wait - rem + time.Second
	}

	res, err := s.rdb.BLPop(ctx, wait, s.key(list)).Result()
	if err == redis.Nil {
		return nil, domain.ErrTimeout
	}
	if err != nil {
		return nil, err
	}
	// BLPOP devolve [chave, valor]
	return []byte(res[1]), nil
}
