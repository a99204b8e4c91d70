package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

// Cliente de validação manual: roda os cenários do semáforo contra um
// semad de verdade (suba um com `go run ./cmd/semad` antes).

func main() {
	base := os.Getenv("SEMAD_URL")
	if base == "" {
		base = "http://localhost:7380"
	}
	fmt.Printf("validando contra %s\n", base)

	ok := true
	ok = cenarioA(base) && ok
	ok = cenarioB(base) && ok
	ok = cenarioC(base) && ok
	ok = cenarioD(base) && ok

	if !ok {
		fmt.Println("RESULTADO: FALHOU")
		os.Exit(1)
	}
	fmt.Println("RESULTADO: ok")
}

func cmd(base, name string, args ...string) (int, string) {
	q := url.Values{}
	for _, a := range args {
		q.Add("arg", a)
	}
	u := base + "/" + name
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	resp, err := http.Post(u, "text/plain", nil)
	if err != nil {
		fmt.Printf("erro chamando %s: %v\n", name, err)
		return 0, ""
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func novo(base string) (string, bool) {
	code, id := cmd(base, "sema/new")
	if code != http.StatusOK || id == "" {
		fmt.Printf("sema/new falhou: status=%d body=%q\n", code, id)
		return "", false
	}
	return id, true
}

// cenário A: um release, depois um acquire com espera — sucesso imediato
func cenarioA(base string) bool {
	id, ok := novo(base)
	if !ok {
		return false
	}
	if code, body := cmd(base, "sema/inc", id); code != http.StatusOK {
		fmt.Printf("cenário A: inc falhou (%d %q)\n", code, body)
		return false
	}
	start := time.Now()
	code, _ := cmd(base, "sema/dec", id, "1s")
	if code != http.StatusOK {
		fmt.Printf("cenário A: dec deveria adquirir, status=%d\n", code)
		return false
	}
	fmt.Printf("cenário A: ok (adquiriu em %s)\n", time.Since(start).Round(time.Millisecond))
	return true
}

// cenário B: acquire sem release — timeout após a espera, sem consumir vaga
func cenarioB(base string) bool {
	id, ok := novo(base)
	if !ok {
		return false
	}
	start := time.Now()
	code, _ := cmd(base, "sema/dec", id, "100ms")
	elapsed := time.Since(start)
	if code != http.StatusServiceUnavailable {
		fmt.Printf("cenário B: esperava timeout (503), status=%d\n", code)
		return false
	}
	if elapsed < 100*time.Millisecond {
		fmt.Printf("cenário B: voltou cedo demais (%s)\n", elapsed)
		return false
	}
	// o timeout não pode ter consumido nada
	cmd(base, "sema/inc", id)
	if code, _ := cmd(base, "sema/dec", id, "1s"); code != http.StatusOK {
		fmt.Printf("cenário B: release+acquire depois do timeout falhou (%d)\n", code)
		return false
	}
	fmt.Printf("cenário B: ok (timeout em %s)\n", elapsed.Round(time.Millisecond))
	return true
}

// cenário C: 3 releases atendem exatamente 3 acquires; o 4º expira na hora
func cenarioC(base string) bool {
	id, ok := novo(base)
	if !ok {
		return false
	}
	for i := 0; i < 3; i++ {
		if code, _ := cmd(base, "sema/inc", id); code != http.StatusOK {
			fmt.Printf("cenário C: inc %d falhou\n", i+1)
			return false
		}
	}

	var wg sync.WaitGroup
	codes := make(chan int, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _ := cmd(base, "sema/dec", id, "2s")
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		if code != http.StatusOK {
			fmt.Printf("cenário C: um dos 3 acquires falhou (%d)\n", code)
			return false
		}
	}
	if code, _ := cmd(base, "sema/dec", id, "0"); code != http.StatusServiceUnavailable {
		fmt.Printf("cenário C: o 4º acquire deveria expirar, status=%d\n", code)
		return false
	}
	fmt.Println("cenário C: ok")
	return true
}

// cenário D: dois acquires concorrentes disputando um único release —
// exatamente um vence
func cenarioD(base string) bool {
	id, ok := novo(base)
	if !ok {
		return false
	}

	var wg sync.WaitGroup
	codes := make(chan int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _ := cmd(base, "sema/dec", id, "2s")
			codes <- code
		}()
	}

	time.Sleep(300 * time.Millisecond)
	if code, _ := cmd(base, "sema/inc", id); code != http.StatusOK {
		fmt.Println("cenário D: inc falhou")
		return false
	}
	wg.Wait()
	close(codes)

	wins, timeouts := 0, 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			wins++
		case http.StatusServiceUnavailable:
			timeouts++
		}
	}
	if wins != 1 || timeouts != 1 {
		fmt.Printf("cenário D: esperava 1 vencedor e 1 timeout, veio wins=%d timeouts=%d\n", wins, timeouts)
		return false
	}
	fmt.Println("cenário D: ok")
	return true
}
