package address

// Store roots.
const (
	Users                 = "users"
	Conversations         = "conversations"
	Invites               = "invites"
	GlobalFeedMessages    = GlobalFeed + "/messages"
	FavoritesFeedMessages = Favorites + "/messages"
)

// User returns users/{id}.
func User(id string) string { return Users + "/" + id }

// Friends returns users/{id}/friends.
func Friends(id string) string { return User(id) + "/friends" }

// Friend returns users/{id}/friends/{other}.
func Friend(id, other string) string { return Friends(id) + "/" + other }

// Shadow returns users/{id}/friendsShadow.
func Shadow(id string) string { return User(id) + "/friendsShadow" }

// ShadowFriend returns users/{id}/friendsShadow/{other}.
func ShadowFriend(id, other string) string { return Shadow(id) + "/" + other }

// ConversationRoot returns conversations/{addr}.
func ConversationRoot(addr string) string { return Conversations + "/" + addr }

// ConversationMessages returns conversations/{addr}/messages.
func ConversationMessages(addr string) string { return ConversationRoot(addr) + "/messages" }

// ConversationTyping returns conversations/{addr}/typing.
func ConversationTyping(addr string) string { return ConversationRoot(addr) + "/typing" }

// TypingSlot returns conversations/{addr}/typing/{id}.
func TypingSlot(addr, id string) string { return ConversationTyping(addr) + "/" + id }

// Invite returns invites/{code}.
func Invite(code string) string { return Invites + "/" + code }
