// Package responder is the scripted bot: arithmetic first, then an ordered
// list of phrase rules, then a fixed apology.
package responder

import (
	"strings"
	"sync"

	"github.com/matheus3301/letschat/internal/clock"
)

// Fallback is the reply when nothing else matches.
const Fallback = replyFallback

// Reply answers text without any conversation state. The same text always
// yields the same reply.
func Reply(text string) string {
	t := normalize(text)
	if t == "" {
		return replyEmpty
	}
	if r, ok := mathReply(t); ok {
		return r
	}
	if r := match(t); r != nil {
		return r.reply
	}
	return Fallback
}

func normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.NewReplacer("’", "'", "‘", "'").Replace(t)
}

func match(t string) *rule {
	for gi := range groups {
		for ri := range groups[gi].rules {
			r := &groups[gi].rules[ri]
			if r.re.MatchString(t) {
				return r
			}
		}
	}
	return nil
}

// Sessions answers like Reply but remembers, per conversation, the riddle
// asked last, so "I don't know" and guesses refer to it.
type Sessions struct {
	clock clock.Clock

	mu   sync.Mutex
	last map[string]int
}

// NewSessions creates an empty session table. c may be nil.
func NewSessions(c clock.Clock) *Sessions {
	if c == nil {
		c = clock.Real()
	}
	return &Sessions{clock: c, last: make(map[string]int)}
}

// Reply answers text sent in conversation.
func (s *Sessions) Reply(conversation, text string) string {
	t := normalize(text)
	if t == "" {
		return replyEmpty
	}
	if r, ok := mathReply(t); ok {
		return r
	}
	r := match(t)
	if r == nil {
		return Fallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.last[conversation]

	switch r.act {
	case actTime:
		return replyTimePrefix + s.clock.Now().Format("3:04:05 PM") + "."
	case actAskRiddle:
		s.last[conversation] = r.riddle
	case actNextRiddle:
		next := last + 1
		if next > len(riddles) {
			return replyNoMore
		}
		s.last[conversation] = next
		return riddleQuestion(next)
	case actReveal:
		s.last[conversation] = r.riddle
	case actDontKnow:
		if last > 0 {
			return riddleReveal(last)
		}
	case actGuess:
		if last > 0 && r.riddle != last {
			return replyWrong
		}
	}
	return r.reply
}

// Forget drops the state of conversation.
func (s *Sessions) Forget(conversation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, conversation)
}
