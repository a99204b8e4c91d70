package application

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"semaforo/sema/domain"
)

// Generator produz identificadores de semáforo no formato do protocolo:
// domain.SegmentCount segmentos de domain.SegmentLength dígitos decimais,
// unidos por "-". Cada dígito é sorteado de forma independente e uniforme.
type Generator struct {
	// Rand é a fonte de aleatoriedade. Se nil, usa crypto/rand.
	//
	// Falha da fonte é fatal para a geração: o erro é propagado, nunca
	// substituído por um valor fixo (isso quebraria a unicidade).
	Rand io.Reader
}

func (g *Generator) reader() io.Reader {
	if g == nil || g.Rand == nil {
		return rand.Reader
	}
	return g.Rand
}

// Segment sorteia um segmento: SegmentLength dígitos '0'-'9', sem separador.
func (g *Generator) Segment() (string, error) {
	r := g.reader()
	digits := make([]byte, 0, domain.SegmentLength)
	buf := make([]byte, domain.SegmentLength)
	for len(digits) < domain.SegmentLength {
		n, err := r.Read(buf)
		if n == 0 {
			if err == nil {
				err = io.ErrNoProgress
			}
			return "", fmt.Errorf("fonte de aleatoriedade falhou: %w", err)
		}
		for _, b := range buf[:n] {
			// rejeição: 250..255 enviesariam o módulo 10
			if b >= 250 {
				continue
			}
			digits = append(digits, '0'+b%10)
			if len(digits) == domain.SegmentLength {
				break
			}
		}
	}
	return string(digits), nil
}

// Identifier sorteia SegmentCount segmentos independentes e os une com "-".
func (g *Generator) Identifier() (domain.Identifier, error) {
	segs := make([]string, 0, domain.SegmentCount)
	for i := 0; i < domain.SegmentCount; i++ {
		s, err := g.Segment()
		if err != nil {
			return "", err
		}
		segs = append(segs, s)
	}
	return domain.Identifier(strings.Join(segs, "-")), nil
}
