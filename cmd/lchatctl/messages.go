package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/chat"
	"github.com/matheus3301/letschat/internal/client"
	"github.com/matheus3301/letschat/internal/subscription"
)

const botReplyTimeout = 10 * time.Second

var sendCommand = &cli.Command{
	Name:      "send",
	Usage:     "Send a message; messages to the bot wait for its reply",
	ArgsUsage: "PEER MESSAGE...",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "image", Usage: "send an image (URL or local file) with MESSAGE as caption"},
	},
	Before: requiresSession,
	After:  closeProfile,
	Action: cmdSend,
}

var historyCommand = &cli.Command{
	Name:      "history",
	Usage:     "Print a conversation",
	ArgsUsage: "PEER",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "only the last N messages"},
	},
	Before: requiresSession,
	After:  closeProfile,
	Action: cmdHistory,
}

var editCommand = &cli.Command{
	Name:      "edit",
	Usage:     "Replace the text of one of your messages",
	ArgsUsage: "PEER MESSAGE_ID TEXT...",
	Before:    requiresSession,
	After:     closeProfile,
	Action:    cmdEdit,
}

var deleteCommand = &cli.Command{
	Name:      "delete",
	Usage:     "Delete one of your messages, or hide someone else's feed post",
	ArgsUsage: "PEER MESSAGE_ID",
	Before:    requiresSession,
	After:     closeProfile,
	Action:    cmdDelete,
}

var reactCommand = &cli.Command{
	Name:      "react",
	Usage:     "Toggle your reaction on a message",
	ArgsUsage: "PEER MESSAGE_ID EMOJI",
	Before:    requiresSession,
	After:     closeProfile,
	Action:    cmdReact,
}

var botCommand = &cli.Command{
	Name:  "bot",
	Usage: "Talk to " + address.BotName,
	Subcommands: []*cli.Command{
		{
			Name:      "ask",
			Usage:     "Ask the bot something and print the reply",
			ArgsUsage: "QUESTION...",
			Before:    requiresSession,
			After:     closeProfile,
			Action:    cmdBotAsk,
		},
	},
}

type messageView struct {
	ID        string              `json:"id"`
	Sender    string              `json:"sender"`
	Name      string              `json:"name"`
	Type      chat.Kind           `json:"type"`
	Text      string              `json:"text"`
	URL       string              `json:"url,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Delivered bool                `json:"delivered"`
	Read      bool                `json:"read"`
	Edited    bool                `json:"edited,omitempty"`
	Deleted   bool                `json:"deleted,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
}

func newMessageView(m chat.Message) messageView {
	return messageView{
		ID:        m.ID,
		Sender:    m.SenderID,
		Name:      m.DisplayName,
		Type:      m.Kind(),
		Text:      m.Body(),
		URL:       m.MediaRef(),
		CreatedAt: m.CreatedAt,
		Delivered: m.Delivered,
		Read:      m.Read,
		Edited:    m.Edited,
		Deleted:   m.Deleted,
		Reactions: m.Reactions,
	}
}

func printMessage(m chat.Message) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-12s %s", m.CreatedAt.Local().Format("Jan 02 15:04"), m.DisplayName, m.Body())
	if m.Kind() == chat.KindImage && !m.Deleted {
		fmt.Fprintf(&b, " [image %s]", m.MediaRef())
	}
	if m.Edited && !m.Deleted {
		b.WriteString(" (edited)")
	}
	for _, emoji := range m.Emojis() {
		fmt.Fprintf(&b, " %s%d", emoji, len(m.Reactions[emoji]))
	}
	fmt.Fprintf(&b, "  {%s}", m.ID)
	fmt.Println(b.String())
}

// openConversation attaches the session to peer so message operations have a
// target. The subscription's listeners are not needed.
func openConversation(ctx *cli.Context, peer string) (*client.Client, error) {
	c := getClient(ctx)
	if _, err := c.Session.Open(peer, subscription.Handlers{}); err != nil {
		return nil, err
	}
	return c, nil
}

func cmdSend(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("you must specify a peer")
	}
	peer := ctx.Args().First()
	body := strings.Join(ctx.Args().Tail(), " ")
	image := ctx.String("image")
	if image == "" && strings.TrimSpace(body) == "" {
		return errors.New("you must specify a message")
	}

	if peer == address.BotID && image == "" {
		return askBot(ctx, body)
	}

	c, err := openConversation(ctx, peer)
	if err != nil {
		return err
	}
	var id string
	if image != "" {
		if body == "" {
			body = filepath.Base(image)
		}
		id, err = c.Session.SendImage(ctx.Context, image, body)
	} else {
		id, err = c.Session.Send(ctx.Context, body)
	}
	if err != nil {
		return err
	}
	if ctx.Bool("json") {
		outputJSON(map[string]string{"id": id})
		return nil
	}
	fmt.Printf("Sent %s\n", id)
	return nil
}

func cmdBotAsk(ctx *cli.Context) error {
	body := strings.Join(ctx.Args().Slice(), " ")
	if strings.TrimSpace(body) == "" {
		return errors.New("you must ask something")
	}
	return askBot(ctx, body)
}

// askBot sends body to the bot and waits for the reply, which is written by
// this process after the reply delay.
func askBot(ctx *cli.Context, body string) error {
	c := getClient(ctx)
	updates := make(chan []chat.Message, 16)
	_, err := c.Session.Open(address.BotID, subscription.Handlers{
		OnMessages: func(_ address.Conversation, msgs []chat.Message) {
			select {
			case updates <- msgs:
			default:
			}
		},
	})
	if err != nil {
		return err
	}
	id, err := c.Session.Send(ctx.Context, body)
	if err != nil {
		return err
	}

	timeout := time.After(botReplyTimeout)
	for {
		select {
		case msgs := <-updates:
			if reply, ok := replyAfter(msgs, id); ok {
				if ctx.Bool("json") {
					outputJSON(newMessageView(reply))
				} else {
					fmt.Println(reply.Body())
				}
				return nil
			}
		case <-timeout:
			return errors.New("the bot did not answer in time")
		case <-ctx.Context.Done():
			return ctx.Context.Err()
		}
	}
}

func replyAfter(msgs []chat.Message, id string) (chat.Message, bool) {
	seen := false
	for _, m := range msgs {
		if m.ID == id {
			seen = true
			continue
		}
		if seen && m.SenderID == address.BotID {
			return m, true
		}
	}
	return chat.Message{}, false
}

func cmdHistory(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("you must specify a peer")
	}
	msgs, err := getClient(ctx).Session.History(ctx.Context, ctx.Args().First())
	if err != nil {
		return err
	}
	if n := ctx.Int("limit"); n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}

	if ctx.Bool("json") {
		views := make([]messageView, len(msgs))
		for i, m := range msgs {
			views[i] = newMessageView(m)
		}
		outputJSON(views)
		return nil
	}
	if len(msgs) == 0 {
		fmt.Println("No messages.")
		return nil
	}
	for _, m := range msgs {
		printMessage(m)
	}
	return nil
}

func cmdEdit(ctx *cli.Context) error {
	if ctx.NArg() < 3 {
		return errors.New("usage: lchatctl edit PEER MESSAGE_ID TEXT...")
	}
	args := ctx.Args().Slice()
	c, err := openConversation(ctx, args[0])
	if err != nil {
		return err
	}
	if err := c.Session.Engine().Edit(ctx.Context, args[1], strings.Join(args[2:], " ")); err != nil {
		return err
	}
	fmt.Printf("Edited %s\n", args[1])
	return nil
}

func cmdDelete(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("usage: lchatctl delete PEER MESSAGE_ID")
	}
	c, err := openConversation(ctx, ctx.Args().Get(0))
	if err != nil {
		return err
	}
	req, err := c.Session.Engine().RequestDelete(ctx.Context, ctx.Args().Get(1))
	if err != nil {
		return err
	}
	return confirmRequest(ctx, req)
}

func cmdReact(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return errors.New("usage: lchatctl react PEER MESSAGE_ID EMOJI")
	}
	c, err := openConversation(ctx, ctx.Args().Get(0))
	if err != nil {
		return err
	}
	added, err := c.Session.Engine().ToggleReaction(ctx.Context, ctx.Args().Get(1), ctx.Args().Get(2))
	if err != nil {
		return err
	}
	if added {
		fmt.Printf("Reacted %s\n", ctx.Args().Get(2))
	} else {
		fmt.Printf("Removed %s\n", ctx.Args().Get(2))
	}
	return nil
}
