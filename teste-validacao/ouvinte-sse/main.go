// ouvinte-sse acompanha o stream de contatos no terminal.
//
//	go run ./teste-validacao/ouvinte-sse -url http://localhost:4000
//	go run ./teste-validacao/ouvinte-sse -url http://localhost:4000 -list
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"contact-stream/contact/domain"
	"contact-stream/internal/jsoncodec"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type sseEvent struct {
	Name string
	Data string
}

func main() {
	base := flag.String("url", "http://localhost:4000", "endereço base da API")
	list := flag.Bool("list", false, "lista os contatos recentes e sai")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	if *list {
		err = printList(ctx, os.Stdout, strings.TrimRight(*base, "/"))
	} else {
		err = tail(ctx, strings.TrimRight(*base, "/"))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		color.Red.Printf("Erro: %v\n", err)
		os.Exit(1)
	}
}

func printList(ctx context.Context, out io.Writer, base string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/contact", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/contact: status %d", resp.StatusCode)
	}

	var contacts []domain.Contact
	if err := jsoncodec.Decode(resp.Body, &contacts); err != nil {
		return fmt.Errorf("decode contacts: %w", err)
	}
	renderTable(out, contacts)
	return nil
}

func renderTable(out io.Writer, contacts []domain.Contact) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Criado em", "Nome", "Email", "Mensagem"})
	for _, c := range contacts {
		table.Append([]string{
			strconv.FormatInt(c.ID, 10),
			domain.FormatTimestamp(c.CreatedAt),
			c.Name,
			c.Email,
			truncate(c.Message, 60),
		})
	}
	table.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func tail(ctx context.Context, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/contact/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream: status %d", resp.StatusCode)
	}

	color.Green.Printf("Conectado em %s, aguardando contatos (Ctrl+C para sair)\n", base)
	return readEvents(resp.Body, func(ev sseEvent) {
		if ev.Name == "" {
			color.Gray.Println("· ping")
			return
		}
		var c domain.Contact
		if err := jsoncodec.Unmarshal([]byte(ev.Data), &c); err != nil {
			color.Yellow.Printf("%s (payload inválido): %s\n", ev.Name, ev.Data)
			return
		}
		color.Cyan.Printf("#%d %s ", c.ID, domain.FormatTimestamp(c.CreatedAt))
		color.Bold.Printf("%s <%s>\n", c.Name, c.Email)
		fmt.Printf("  %s\n", c.Message)
	})
}

// readEvents separa o stream em eventos. Comentários (": ping") viram um
// evento sem nome.
func readEvents(r io.Reader, fn func(sseEvent)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		cur     sseEvent
		data    []string
		pending bool
	)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if pending {
				cur.Data = strings.Join(data, "\n")
				fn(cur)
			}
			cur, data, pending = sseEvent{}, nil, false
		case strings.HasPrefix(line, ":"):
			pending = true
		case strings.HasPrefix(line, "event:"):
			cur.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			pending = true
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			pending = true
		}
	}
	return sc.Err()
}
