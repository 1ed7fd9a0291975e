package chat

import (
	"sort"
	"time"
)

// DeletedPlaceholder replaces the body of a soft-deleted message.
const DeletedPlaceholder = "Message deleted"

// Kind is the stored discriminator of a message variant.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Content is the variant part of a message: Text or Image.
type Content interface {
	kind() Kind
}

// Text is a plain text message.
type Text struct {
	Body string
}

// Image is a picture with a caption (the file name unless given).
type Image struct {
	Body     string
	MediaRef string
}

func (Text) kind() Kind  { return KindText }
func (Image) kind() Kind { return KindImage }

// Message is one entry of a conversation.
type Message struct {
	ID          string
	SenderID    string
	DisplayName string
	Content     Content
	CreatedAt   time.Time
	Delivered   bool
	Read        bool
	Edited      bool
	Deleted     bool
	// Reactions maps an emoji to the sorted ids of users who reacted with it.
	Reactions map[string][]string
}

// Kind returns the message variant.
func (m Message) Kind() Kind {
	if m.Content == nil {
		return KindText
	}
	return m.Content.kind()
}

// Body returns the text or caption.
func (m Message) Body() string {
	switch c := m.Content.(type) {
	case Text:
		return c.Body
	case Image:
		return c.Body
	default:
		return ""
	}
}

// MediaRef returns the image reference, or "" for text messages.
func (m Message) MediaRef() string {
	if img, ok := m.Content.(Image); ok {
		return img.MediaRef
	}
	return ""
}

// ReactedBy reports whether uid reacted with emoji.
func (m Message) ReactedBy(emoji, uid string) bool {
	for _, id := range m.Reactions[emoji] {
		if id == uid {
			return true
		}
	}
	return false
}

// Emojis returns the reaction emojis in stable order.
func (m Message) Emojis() []string {
	out := make([]string, 0, len(m.Reactions))
	for e := range m.Reactions {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
