package friends

import (
	"context"
	"fmt"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/confirm"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// RequestWipe parks the account wipe until it is confirmed.
func (m *Manager) RequestWipe() confirm.Request {
	prompt := "Erase your friends, presence and conversations? This cannot be undone."
	return m.cfg.Gate.Ask(confirm.WipeAccount, prompt, m.Wipe)
}

// Wipe removes everything the user owns: both directions of every live and
// shadow edge, the presence record, open invites, every direct and bot conversation the
// user takes part in, and the user's posts in the shared feeds. Each path is
// removed independently so a partial failure can simply be re-run.
func (m *Manager) Wipe(ctx context.Context) error {
	me := m.cfg.Me.ID
	var errs error
	remove := func(path string) {
		if err := m.cfg.Store.Remove(ctx, path); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}

	peers := map[string]bool{}
	for _, id := range m.Friends() {
		peers[id] = true
	}
	for _, path := range []string{address.Friends(me), address.Shadow(me)} {
		set, err := m.edges(ctx, path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for id := range set {
			peers[id] = true
		}
	}
	for id := range peers {
		remove(address.Friend(id, me))
		remove(address.ShadowFriend(id, me))
	}
	remove(address.User(me))

	convs, err := m.cfg.Store.Get(ctx, address.Conversations)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list conversations: %w", err))
	}
	for addr := range (tree.Snapshot{Value: convs}).Map() {
		if address.Involves(addr, me) {
			remove(address.ConversationRoot(addr))
		}
	}

	for _, feed := range []string{address.GlobalFeedMessages, address.FavoritesFeedMessages} {
		posts, err := m.cfg.Store.Get(ctx, feed)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("list %s: %w", feed, err))
			continue
		}
		for id, rec := range (tree.Snapshot{Value: posts}).Map() {
			post, _ := rec.(map[string]any)
			if tree.String(post["sender"]) == me {
				remove(tree.Join(feed, id))
			}
		}
	}

	invites, err := m.cfg.Store.Get(ctx, address.Invites)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list invites: %w", err))
	}
	for code, rec := range (tree.Snapshot{Value: invites}).Map() {
		inv, _ := rec.(map[string]any)
		if tree.String(inv["from"]) == me {
			remove(address.Invite(code))
		}
	}

	m.replace(map[string]bool{})
	if errs != nil {
		m.cfg.Logger.Warn("account wipe incomplete", zap.Int("failures", len(multierr.Errors(errs))))
		return fmt.Errorf("wipe account: %w", errs)
	}
	m.cfg.Logger.Info("account wiped", zap.Int("peers", len(peers)))
	return nil
}
