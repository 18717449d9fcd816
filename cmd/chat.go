package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/xiaot623/nexusdesk/internal/transport/ws"
)

var (
	chatAddr    string
	chatSession string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the support assistant from the terminal",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAddr, "addr", "ws://localhost:8080", "server websocket base address")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session id (default: a new one)")
}

// chatClient is a terminal client of the chat websocket.
type chatClient struct {
	conn *websocket.Conn
	out  io.Writer
}

func dialChat(addr, sessionID string, out io.Writer) (*chatClient, error) {
	url := strings.TrimSuffix(addr, "/") + "/api/chat/" + sessionID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &chatClient{conn: conn, out: out}, nil
}

func (c *chatClient) Close() error {
	return c.conn.Close()
}

// Ask sends content and prints the streamed reply until it completes.
func (c *chatClient) Ask(content string) error {
	if err := c.conn.WriteJSON(ws.ClientMessage{Type: ws.TypeMessage, Content: content}); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	for {
		var msg ws.ServerMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		switch msg.Type {
		case ws.TypeDelta:
			fmt.Fprint(c.out, msg.Content)
		case ws.TypeDone:
			fmt.Fprintln(c.out)
			return nil
		case ws.TypeError:
			return fmt.Errorf("%s: %s", msg.Code, msg.Message)
		}
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	sessionID := chatSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	out := cmd.OutOrStdout()

	client, err := dialChat(chatAddr, sessionID, out)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintf(out, "Session %s. Type a message and press Enter; /quit to exit.\n", sessionID)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" {
			return nil
		}
		if err := client.Ask(input); err != nil {
			return err
		}
	}
}
