package flow

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Kind discriminates inbound event variants.
type Kind int

const (
	// KindOther covers updates the bot does not act on.
	KindOther Kind = iota
	// KindCommand is a slash command message.
	KindCommand
	// KindPhoto is a message carrying a photo.
	KindPhoto
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindPhoto:
		return "photo"
	default:
		return "other"
	}
}

// Event is a normalized inbound update. Exactly one variant applies:
// Command is set for KindCommand, Photo for KindPhoto.
type Event struct {
	Kind Kind

	UserID   int64
	ChatID   int64
	Username string

	// Command is the bare command name, lowercased, without the
	// leading slash, payload, or bot mention.
	Command string

	// Photo is the largest photo rendition Telegram offered.
	Photo *tele.Photo
}

// Classify maps a raw update into an Event the engine understands.
func Classify(c tele.Context) Event {
	ev := Event{}
	if sender := c.Sender(); sender != nil {
		ev.UserID = sender.ID
		ev.Username = sender.Username
	}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}

	msg := c.Message()
	if msg == nil {
		return ev
	}

	if msg.Photo != nil {
		ev.Kind = KindPhoto
		ev.Photo = msg.Photo
		return ev
	}

	if cmd, ok := parseCommand(msg.Text); ok {
		ev.Kind = KindCommand
		ev.Command = cmd
		return ev
	}

	return ev
}

func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text)[0]
	cmd = strings.TrimPrefix(cmd, "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	if cmd == "" {
		return "", false
	}
	return strings.ToLower(cmd), true
}
