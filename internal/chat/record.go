package chat

import (
	"sort"
	"time"

	"github.com/matheus3301/letschat/internal/tree"
)

// Stored field names.
const (
	fieldSender    = "sender"
	fieldName      = "name"
	fieldType      = "type"
	fieldText      = "text"
	fieldURL       = "url"
	fieldTimestamp = "timestamp"
	fieldDelivered = "delivered"
	fieldRead      = "read"
	fieldEdited    = "edited"
	fieldDeleted   = "deleted"
	fieldReactions = "reactions"
)

func newRecord(senderID, name string, c Content, at time.Time) map[string]any {
	rec := map[string]any{
		fieldSender:    senderID,
		fieldName:      name,
		fieldType:      string(c.kind()),
		fieldTimestamp: float64(at.UnixMilli()),
		fieldDelivered: false,
		fieldRead:      false,
		fieldEdited:    false,
		fieldDeleted:   false,
	}
	switch v := c.(type) {
	case Text:
		rec[fieldText] = v.Body
	case Image:
		rec[fieldText] = v.Body
		rec[fieldURL] = v.MediaRef
	}
	return rec
}

// Decode converts a stored record. ok is false for values that are not messages.
func Decode(id string, v any) (Message, bool) {
	rec, isMap := v.(map[string]any)
	if !isMap {
		return Message{}, false
	}
	sender := tree.String(rec[fieldSender])
	if sender == "" {
		return Message{}, false
	}
	m := Message{
		ID:          id,
		SenderID:    sender,
		DisplayName: tree.String(rec[fieldName]),
		CreatedAt:   time.UnixMilli(tree.Int64(rec[fieldTimestamp])),
		Delivered:   tree.Bool(rec[fieldDelivered]),
		Read:        tree.Bool(rec[fieldRead]),
		Edited:      tree.Bool(rec[fieldEdited]),
		Deleted:     tree.Bool(rec[fieldDeleted]),
	}
	body := tree.String(rec[fieldText])
	if m.Deleted {
		body = DeletedPlaceholder
	}
	if Kind(tree.String(rec[fieldType])) == KindImage {
		m.Content = Image{Body: body, MediaRef: tree.String(rec[fieldURL])}
	} else {
		m.Content = Text{Body: body}
	}

	if reactions, ok := rec[fieldReactions].(map[string]any); ok {
		m.Reactions = make(map[string][]string, len(reactions))
		for emoji, users := range reactions {
			set, ok := users.(map[string]any)
			if !ok || len(set) == 0 {
				continue
			}
			ids := make([]string, 0, len(set))
			for uid := range set {
				ids = append(ids, uid)
			}
			sort.Strings(ids)
			m.Reactions[emoji] = ids
		}
	}
	return m, true
}

// DecodeAll decodes every child of a messages snapshot, ordered by creation
// time and then id.
func DecodeAll(snap tree.Snapshot) []Message {
	keys := snap.Keys()
	out := make([]Message, 0, len(keys))
	for _, k := range keys {
		if m, ok := Decode(k, snap.Map()[k]); ok {
			out = append(out, m)
		}
	}
	SortMessages(out)
	return out
}

// SortMessages orders messages by CreatedAt ascending.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
