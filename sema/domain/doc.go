// Package domain contém os contratos e tipos do semáforo distribuído,
// sem dependência de rede nem de cliente de store.
package domain
