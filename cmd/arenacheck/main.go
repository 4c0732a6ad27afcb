// arenacheck probes a running arena server: the command API health
// endpoint, the config record, and optionally the websocket event feed.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func main() {
	baseURL := strings.TrimRight(os.Getenv("ARENA_BASE_URL"), "/")
	wsURL := os.Getenv("ARENA_EVENTS_URL")
	if baseURL == "" {
		log.Fatal("ARENA_BASE_URL is required")
	}

	client := &fasthttp.Client{
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 8 * time.Second,
	}

	if body, err := get(client, baseURL+"/healthz"); err != nil {
		log.Printf("/healthz error: %v", err)
	} else {
		log.Printf("/healthz ok: %s", body)
	}

	if body, err := get(client, baseURL+"/v1/records/config"); err != nil {
		log.Printf("/v1/records/config error: %v", err)
	} else {
		log.Printf("/v1/records/config ok: %s", truncate(body, 256))
	}

	if wsURL == "" {
		log.Println("ARENA_EVENTS_URL not set; skipping event feed check")
		return
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, wsURL, nil)
	if err != nil {
		log.Printf("event feed connect error: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	log.Println("event feed connected, observing for 10s")

	readCtx, readCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer readCancel()
	for {
		var ev map[string]any
		if err := wsjson.Read(readCtx, conn, &ev); err != nil {
			return
		}
		fmt.Printf("event: %v\n", ev)
	}
}

func get(client *fasthttp.Client, url string) (string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.SetRequestURI(url)
	if err := client.DoTimeout(req, resp, 8*time.Second); err != nil {
		return "", err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode(), truncate(string(resp.Body()), 256))
	}
	return string(resp.Body()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
