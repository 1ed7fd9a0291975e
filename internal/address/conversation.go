package address

import "fmt"

// Scope classifies a conversation.
type Scope int

const (
	Direct Scope = iota
	Bot
	Global
	FavoritesFeed
)

func (s Scope) String() string {
	switch s {
	case Direct:
		return "direct"
	case Bot:
		return "bot"
	case Global:
		return "global"
	case FavoritesFeed:
		return "favorites"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Conversation identifies one place messages are written to.
type Conversation struct {
	Scope Scope
	// Peer is the other participant for Direct and Bot scopes.
	Peer string
	// Address is the canonical address or the fixed feed address.
	Address string
}

// Shared reports whether the conversation is a feed every user can post to.
func (c Conversation) Shared() bool {
	return c.Scope == Global || c.Scope == FavoritesFeed
}

// HasTyping reports whether typing signals are published for the conversation.
func (c Conversation) HasTyping() bool {
	return c.Scope == Direct || c.Scope == Bot
}

// HasReceipts reports whether readers record delivery and read receipts.
func (c Conversation) HasReceipts() bool {
	return !c.Shared()
}

// MessagesPath returns the store path holding the conversation's messages.
func (c Conversation) MessagesPath() string {
	switch c.Scope {
	case Global:
		return GlobalFeedMessages
	case FavoritesFeed:
		return FavoritesFeedMessages
	default:
		return ConversationMessages(c.Address)
	}
}

// MessagePath returns the store path of a single message.
func (c Conversation) MessagePath(id string) string {
	return c.MessagesPath() + "/" + id
}

// TypingPath returns the typing slot root, or "" for scopes without typing.
func (c Conversation) TypingPath() string {
	if !c.HasTyping() {
		return ""
	}
	return ConversationTyping(c.Address)
}

// For returns the conversation the user me has with peer. The fixed feed
// addresses and the bot identity select their own scopes.
func For(me, peer string) (Conversation, error) {
	switch peer {
	case GlobalFeed:
		return Conversation{Scope: Global, Address: GlobalFeed}, nil
	case Favorites:
		return Conversation{Scope: FavoritesFeed, Address: Favorites}, nil
	}
	if err := ValidateID(me); err != nil {
		return Conversation{}, err
	}
	if err := ValidateID(peer); err != nil {
		return Conversation{}, err
	}
	if me == peer {
		return Conversation{}, fmt.Errorf("%w: cannot open a conversation with yourself", ErrInvalidID)
	}
	scope := Direct
	if peer == BotID {
		scope = Bot
	}
	return Conversation{Scope: scope, Peer: peer, Address: Resolve(me, peer)}, nil
}
