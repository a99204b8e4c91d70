// Package application reúne os casos de uso do semáforo (gerar
// identificador, liberar e adquirir vaga), sem saber nada sobre HTTP
// nem sobre o host que expõe os comandos.
package application
