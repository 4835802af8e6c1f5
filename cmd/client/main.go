// Interactive terminal client. Dials the coordinator, prints the event
// stream, and turns stdin lines into frames:
//
//	plain text    send_message
//	/typing       typing_start
//	/stop         typing_stop
//	/read N       mark_read up to sequence N
//	/history      fetch_history since 0, rendered as a table
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/infrastructure/ws"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Coordinator address")
	user := flag.String("user", "", "User to connect as")
	room := flag.String("room", "general", "Conversation to join")
	secret := flag.String("secret", "", "Token signing secret (mirrors AUTH_SECRET on the server)")
	issuer := flag.String("issuer", "chat-hub", "Token issuer")
	flag.Parse()

	if *user == "" || *secret == "" {
		log.Fatal("both -user and -secret are required")
	}

	verifier := auth.NewVerifier(*secret, *issuer)
	token, err := verifier.GenerateToken(domain.UserID(*user), 24*time.Hour)
	if err != nil {
		log.Fatal("Token generation failed: ", err)
	}

	url := fmt.Sprintf("ws://%s/ws?token=%s", *addr, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatal("Connection failed: ", err)
	}
	defer conn.Close()

	color.Green.Printf("Connected to %s as %s (room %s)\n", *addr, *user, *room)

	go receive(conn, *user)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		frame, ok := toFrame(scanner.Text(), *room)
		if !ok {
			continue
		}
		if err = conn.WriteJSON(frame); err != nil {
			log.Fatal("Write failed: ", err)
		}
	}
}

func toFrame(line, room string) (ws.InboundFrame, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return ws.InboundFrame{}, false
	case line == "/typing":
		return ws.InboundFrame{Kind: "typing_start", ConversationID: room}, true
	case line == "/stop":
		return ws.InboundFrame{Kind: "typing_stop", ConversationID: room}, true
	case line == "/history":
		return ws.InboundFrame{Kind: "fetch_history", ConversationID: room}, true
	case strings.HasPrefix(line, "/read "):
		seq, err := strconv.ParseUint(strings.TrimPrefix(line, "/read "), 10, 64)
		if err != nil {
			color.Red.Println("usage: /read <sequence>")
			return ws.InboundFrame{}, false
		}
		return ws.InboundFrame{Kind: "mark_read", ConversationID: room, UpToSequence: seq}, true
	case strings.HasPrefix(line, "/"):
		color.Red.Printf("unknown command %s\n", line)
		return ws.InboundFrame{}, false
	default:
		return ws.InboundFrame{Kind: "send_message", ConversationID: room, Content: line}, true
	}
}

func receive(conn *websocket.Conn, self string) {
	for {
		var frame ws.OutboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			log.Fatal("Connection lost: ", err)
		}
		render(frame, self)
	}
}

func render(frame ws.OutboundFrame, self string) {
	switch frame.Kind {
	case "message_delivered":
		if frame.Actor == self {
			return
		}
		color.Cyan.Printf("[%d] %s: %s\n", frame.Sequence, frame.Actor, frame.Content)
	case "ack":
		color.Gray.Printf("sent (sequence %d)\n", frame.Sequence)
	case "typing_started":
		color.Yellow.Printf("%s is typing...\n", frame.Actor)
	case "typing_stopped":
		color.Yellow.Printf("%s stopped typing\n", frame.Actor)
	case "message_read":
		color.Magenta.Printf("%s read up to sequence %d\n", frame.Actor, frame.UpToSequence)
	case "presence_changed":
		color.Blue.Printf("%s is now %s\n", frame.Actor, frame.Status)
	case "history":
		renderHistory(frame)
	case "error":
		color.Red.Printf("rejected: %s (%s)\n", frame.Detail, frame.Code)
	default:
		color.Gray.Printf("%+v\n", frame)
	}
}

func renderHistory(frame ws.OutboundFrame) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "Author", "Content", "At"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, msg := range frame.Messages {
		table.Append([]string{
			strconv.FormatUint(msg.Sequence, 10),
			msg.Author,
			msg.Content,
			msg.Timestamp.Format(time.RFC822),
		})
	}
	table.Render()
}
