package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeCreateRoom  = 103
	MsgTypeChangeTeam  = 104
	MsgTypePlayerReady = 105
	MsgTypeStartGame   = 106
	MsgTypeChat        = 108
	MsgTypePlayerInput = 201
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	// 建房 -> 加入红队 -> 准备，然后等手动 start
	log.Println("Creating a room...")
	create, _ := json.Marshal(map[string]interface{}{
		"name":       "demo room",
		"host":       "demo",
		"maxPlayers": 6,
	})
	if err := send(c, MsgTypeCreateRoom, create); err != nil {
		log.Println("Write error:", err)
		return
	}

	team, _ := json.Marshal(map[string]string{"team": "red"})
	send(c, MsgTypeChangeTeam, team)

	ready, _ := json.Marshal(map[string]bool{"ready": true})
	send(c, MsgTypePlayerReady, ready)

	log.Println("Commands: start | w/a/s/d (move one tick) | kick | push | say <msg>")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}

			switch {
			case text == "start":
				send(c, MsgTypeStartGame, []byte("{}"))
				log.Println("-> SENT: start_game")
			case text == "kick" || text == "push":
				input := map[string]interface{}{
					"keys": map[string]bool{},
					"kick": text == "kick",
					"push": text == "push",
				}
				data, _ := json.Marshal(input)
				send(c, MsgTypePlayerInput, data)
				log.Printf("-> SENT: %s", text)
			case strings.HasPrefix(text, "say "):
				chat, _ := json.Marshal(map[string]string{"message": strings.TrimPrefix(text, "say ")})
				send(c, MsgTypeChat, chat)
			case strings.ContainsAny(text, "wasd"):
				keys := map[string]bool{}
				for _, r := range text {
					keys[string(r)] = true
				}
				input := map[string]interface{}{"keys": keys}
				data, _ := json.Marshal(input)
				send(c, MsgTypePlayerInput, data)
				log.Printf("-> SENT: move %s", text)
			default:
				log.Printf("Unknown command %q", text)
			}
		}
	}
}
