package presence

import (
	"sort"

	"github.com/matheus3301/letschat/internal/tree"
)

// TypingStatus renders the typing slots of a conversation, ignoring me.
func TypingStatus(slots tree.Snapshot, me string) string {
	var names []string
	for _, uid := range slots.Keys() {
		if uid == me {
			continue
		}
		slot := slots.Child(uid).Map()
		if !tree.Bool(slot["typing"]) {
			continue
		}
		name := tree.String(slot["name"])
		if name == "" {
			name = uid
		}
		names = append(names, name)
	}
	sort.Strings(names)

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0] + " is typing..."
	case 2:
		return names[0] + " and " + names[1] + " are typing..."
	default:
		return "Several people are typing..."
	}
}
