// Interactive test harness for the party server. Speaks the JSON event
// protocol over a single websocket and remembers the last room code so
// commands stay short:
//
//	create [cards|trivia]
//	join CODE NAME
//	start
//	play INDEX [color]
//	draw
//	color red|yellow|green|blue
//	answer NUMBER
//	vote over|under
//	restart
//	new
//	quit
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var addr = flag.String("addr", "localhost:8080", "server address")

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

var (
	mu       sync.Mutex
	roomCode string
)

func setRoomCode(code string) {
	mu.Lock()
	roomCode = code
	mu.Unlock()
}

func currentRoom() string {
	mu.Lock()
	defer mu.Unlock()
	return roomCode
}

// send frames and sends one event to the server.
func send(c *websocket.Conn, event string, data interface{}) error {
	env := struct {
		Event string      `json:"event"`
		Data  interface{} `json:"data,omitempty"`
	}{event, data}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	log.Printf("-> %s: %s", event, mustJSON(data))
	return c.WriteMessage(websocket.TextMessage, raw)
}

func mustJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return string(raw)
}

func main() {
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})
	go readLoop(c, done)

	go func() {
		<-interrupt
		log.Println("Interrupt received, closing connection.")
		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("Write close error:", err)
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		os.Exit(0)
	}()

	log.Println("Client started. Commands: create, join CODE NAME, start, play INDEX [color], draw, color COLOR, answer N, vote over|under, restart, new, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			return
		}
		if err := dispatch(c, line); err != nil {
			log.Println("Write error:", err)
			return
		}
		select {
		case <-done:
			return
		default:
		}
	}
}

// readLoop logs every inbound event and tracks the active room code.
func readLoop(c *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			log.Println("Read error:", err)
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("<- undecodable frame: %s", raw)
			continue
		}
		log.Printf("<- %s: %s", env.Event, env.Data)

		if env.Event == "room-created" {
			var p struct {
				RoomCode string `json:"roomCode"`
			}
			if json.Unmarshal(env.Data, &p) == nil && p.RoomCode != "" {
				setRoomCode(p.RoomCode)
				log.Printf("Tracking room %s", p.RoomCode)
			}
		}
	}
}

func dispatch(c *websocket.Conn, line string) error {
	fields := strings.Fields(line)

	switch fields[0] {
	case "create":
		gameType := "cards"
		if len(fields) > 1 {
			gameType = fields[1]
		}
		return send(c, "create-room", map[string]string{"gameType": gameType})

	case "join":
		if len(fields) < 3 {
			log.Println("usage: join CODE NAME")
			return nil
		}
		setRoomCode(strings.ToUpper(fields[1]))
		return send(c, "join-room", map[string]string{
			"roomCode":   currentRoom(),
			"playerName": strings.Join(fields[2:], " "),
		})

	case "start":
		return send(c, "start-game", map[string]string{"roomCode": currentRoom()})

	case "play":
		if len(fields) < 2 {
			log.Println("usage: play INDEX [color]")
			return nil
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			log.Printf("Bad card index %q", fields[1])
			return nil
		}
		payload := map[string]interface{}{"roomCode": currentRoom(), "cardIndex": idx}
		if len(fields) > 2 {
			payload["chosenColor"] = fields[2]
		}
		return send(c, "play-card", payload)

	case "draw":
		return send(c, "draw-card", map[string]string{"roomCode": currentRoom()})

	case "color":
		if len(fields) < 2 {
			log.Println("usage: color red|yellow|green|blue")
			return nil
		}
		return send(c, "choose-color", map[string]string{"roomCode": currentRoom(), "color": fields[1]})

	case "answer":
		if len(fields) < 2 {
			log.Println("usage: answer NUMBER")
			return nil
		}
		n, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			log.Printf("Bad answer %q", fields[1])
			return nil
		}
		return send(c, "submit-answer", map[string]interface{}{"roomCode": currentRoom(), "answer": n})

	case "vote":
		if len(fields) < 2 {
			log.Println("usage: vote over|under")
			return nil
		}
		return send(c, "submit-vote", map[string]string{"roomCode": currentRoom(), "vote": fields[1]})

	case "restart":
		return send(c, "host-restart-game", map[string]string{"roomCode": currentRoom()})

	case "new":
		return send(c, "host-new-players", map[string]string{"roomCode": currentRoom()})

	default:
		log.Printf("Unknown command %q", fields[0])
		return nil
	}
}
