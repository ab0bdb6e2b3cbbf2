// Package main provides a stress testing tool for the realtime chat relay.
//
// Two accounts log in; half of the clients connect as each. Every client
// periodically sends a new-message websocket frame to the other account,
// optionally also persisting it through POST /api/send/message, and counts
// the message-received events it gets back.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the test results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	MessagesSent         int64
	MessagesReceived     int64
	Errors               int64
	LatencyTotalMicros   int64
}

var metrics Metrics

type session struct {
	UserID uint
	Token  string
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	emailA := flag.String("email", "alice@example.com", "First test user email")
	emailB := flag.String("peer-email", "bob@example.com", "Second test user email")
	password := flag.String("password", "password123", "Password of both test users")
	clients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 5*time.Second, "Send interval per client")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	viaREST := flag.Bool("rest", false, "Also persist every message through POST /api/send/message")
	flag.Parse()

	log.Printf("Starting chat relay stress test")
	log.Printf("Target: %s", *host)
	log.Printf("Clients: %d", *clients)
	log.Printf("Duration: %v", *duration)

	a, err := login(*host, *emailA, *password)
	if err != nil {
		log.Fatalf("Login failed for %s: %v", *emailA, err)
	}
	b, err := login(*host, *emailB, *password)
	if err != nil {
		log.Fatalf("Login failed for %s: %v", *emailB, err)
	}
	log.Printf("Logged in as users %d and %d", a.UserID, b.UserID)

	var chatID uint
	if *viaREST {
		if chatID, err = createChat(*host, a, b.UserID); err != nil {
			log.Fatalf("Create chat failed: %v", err)
		}
		log.Printf("Using chat %d", chatID)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		me, peer := a, b
		if i%2 == 1 {
			me, peer = b, a
		}
		wg.Add(1)
		go runClient(clientConfig{
			host:     *host,
			id:       i,
			me:       me,
			peer:     peer,
			chatID:   chatID,
			interval: *interval,
		}, stopChan, &wg)
		time.Sleep(20 * time.Millisecond) // Stagger connections
	}

	select {
	case <-time.After(*duration):
		log.Println("Test duration reached")
	case <-interrupt:
		log.Println("Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to disconnect...")
	wg.Wait()

	printMetrics()
}

func login(host, email, password string) (session, error) {
	loginURL := fmt.Sprintf("http://%s/api/login", host)
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return session{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return session{}, fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
		User  struct {
			UserID uint `json:"userid"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return session{}, err
	}
	return session{UserID: result.User.UserID, Token: result.Token}, nil
}

func authedPost(host, path string, s session, payload any) (*http.Response, error) {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s%s", host, path), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Token)

	client := &http.Client{Timeout: 5 * time.Second}
	return client.Do(req)
}

func createChat(host string, s session, receiverID uint) (uint, error) {
	resp, err := authedPost(host, "/api/create/chat", s, map[string]uint{"recieverid": receiverID})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("create chat failed with status %d", resp.StatusCode)
	}
	var result struct {
		ChatID uint `json:"chatid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	return result.ChatID, nil
}

type clientConfig struct {
	host     string
	id       int
	me, peer session
	chatID   uint
	interval time.Duration
}

func runClient(cfg clientConfig, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: cfg.host, Path: "/ws", RawQuery: "token=" + url.QueryEscape(cfg.me.Token)}

	dialer := websocket.DefaultDialer
	c, resp, err := dialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(map[string]any{"event": "setup", "data": map[string]any{"userid": cfg.me.UserID}}); err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	// Read loop
	go func() {
		for {
			var f frame
			if err := c.ReadJSON(&f); err != nil {
				return
			}
			switch f.Event {
			case "message-received":
				atomic.AddInt64(&metrics.MessagesReceived, 1)
				recordLatency(f.Data)
			case "error":
				atomic.AddInt64(&metrics.Errors, 1)
			}
		}
	}()

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			content := fmt.Sprintf("chattest %d %d", cfg.id, time.Now().UnixNano())
			if err := send(c, cfg, content); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				return
			}
			atomic.AddInt64(&metrics.MessagesSent, 1)
		}
	}
}

// send delivers content over the socket and, in REST mode, also persists it
// the way the web client does.
func send(c *websocket.Conn, cfg clientConfig, content string) error {
	err := c.WriteJSON(map[string]any{
		"event": "new-message",
		"data": map[string]any{
			"senderid":     cfg.me.UserID,
			"participants": []uint{cfg.me.UserID, cfg.peer.UserID},
			"content":      content,
		},
	})
	if err != nil || cfg.chatID == 0 {
		return err
	}

	resp, err := authedPost(cfg.host, "/api/send/message", cfg.me, map[string]any{"chatid": cfg.chatID, "content": content})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("send failed with status %d", resp.StatusCode)
	}
	return nil
}

// recordLatency reads the send timestamp back out of the message content.
func recordLatency(data json.RawMessage) {
	var msg struct {
		Content string `json:"content"`
	}
	if json.Unmarshal(data, &msg) != nil {
		return
	}
	fields := strings.Fields(msg.Content)
	if len(fields) != 3 || fields[0] != "chattest" {
		return
	}
	sent, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return
	}
	atomic.AddInt64(&metrics.LatencyTotalMicros, time.Since(time.Unix(0, sent)).Microseconds())
}

func printMetrics() {
	received := atomic.LoadInt64(&metrics.MessagesReceived)
	log.Println("Test Results")
	log.Println("============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Messages Sent: %d", atomic.LoadInt64(&metrics.MessagesSent))
	log.Printf("Messages Received: %d", received)
	if received > 0 {
		avg := time.Duration(atomic.LoadInt64(&metrics.LatencyTotalMicros)/received) * time.Microsecond
		log.Printf("Average Delivery Latency: %v", avg)
	}
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
