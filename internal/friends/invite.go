package friends

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/tree"
	"go.uber.org/zap"
)

// Invite is a pending friendship offer stored at invites/{code}.
type Invite struct {
	Code      string
	From      string
	Name      string
	CreatedAt time.Time
}

// CreateInvite publishes an invite from the user and returns it.
func (m *Manager) CreateInvite(ctx context.Context) (Invite, error) {
	inv := Invite{
		Code:      uuid.NewString(),
		From:      m.cfg.Me.ID,
		Name:      m.cfg.Me.Name,
		CreatedAt: m.cfg.Clock.Now(),
	}
	err := m.cfg.Store.Set(ctx, address.Invite(inv.Code), map[string]any{
		"from":      inv.From,
		"name":      inv.Name,
		"createdAt": float64(inv.CreatedAt.UnixMilli()),
	})
	if err != nil {
		return Invite{}, fmt.Errorf("create invite: %w", err)
	}
	return inv, nil
}

// LookupInvite reads an invite without accepting it.
func (m *Manager) LookupInvite(ctx context.Context, code string) (Invite, error) {
	if err := tree.ValidateKey(code); err != nil {
		return Invite{}, fmt.Errorf("%w: %q", ErrInviteNotFound, code)
	}
	v, err := m.cfg.Store.Get(ctx, address.Invite(code))
	if err != nil {
		return Invite{}, fmt.Errorf("read invite: %w", err)
	}
	rec, _ := v.(map[string]any)
	from := tree.String(rec["from"])
	if from == "" {
		return Invite{}, fmt.Errorf("%w: %s", ErrInviteNotFound, code)
	}
	return Invite{
		Code:      code,
		From:      from,
		Name:      tree.String(rec["name"]),
		CreatedAt: time.UnixMilli(tree.Int64(rec["createdAt"])),
	}, nil
}

// AcceptInvite befriends the invite's author and consumes the invite.
func (m *Manager) AcceptInvite(ctx context.Context, code string) (Invite, error) {
	inv, err := m.LookupInvite(ctx, code)
	if err != nil {
		return Invite{}, err
	}
	if inv.From == m.cfg.Me.ID {
		return Invite{}, ErrSelf
	}
	if err := m.Add(ctx, inv.From); err != nil {
		return Invite{}, err
	}
	if err := m.cfg.Store.Remove(ctx, address.Invite(code)); err != nil {
		m.cfg.Logger.Warn("consume invite", zap.String("code", code), zap.Error(err))
	}
	return inv, nil
}
