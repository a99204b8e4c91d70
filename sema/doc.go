// Package sema expõe o semáforo distribuído como comandos de host.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (identificador, ListStore, estatísticas)
//   - application: casos de uso (gerar identificador, release/acquire)
//   - infra: stores concretos (Redis, memória) e estatísticas
//   - sema (este pacote): tabela de comandos + adapter HTTP do host standalone
//
// As três operações têm nomes fixos: sema/new, sema/inc e sema/dec.
// Rodando dentro de um host, o host fornece o Registry e chama Bind;
// rodando standalone (cmd/semad), o LocalRegistry faz o mesmo papel sem
// mudar o comportamento observável das operações.
package sema
