package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/urfave/cli/v2"

	"github.com/matheus3301/letschat/internal/friends"
	"github.com/matheus3301/letschat/internal/presence"
)

var friendsCommand = &cli.Command{
	Name:  "friends",
	Usage: "Manage friends",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List friends",
			Before: requiresSession,
			After:  closeProfile,
			Action: cmdFriendsList,
		},
		{
			Name:      "add",
			Usage:     "Befriend a user",
			ArgsUsage: "USER_ID",
			Before:    requiresSession,
			After:     closeProfile,
			Action:    cmdFriendsAdd,
		},
		{
			Name:      "remove",
			Usage:     "Remove a friend",
			ArgsUsage: "USER_ID",
			Before:    requiresSession,
			After:     closeProfile,
			Action:    cmdFriendsRemove,
		},
	},
}

var invitesCommand = &cli.Command{
	Name:  "invites",
	Usage: "Share and accept friend invites",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Create an invite code and show it as a QR code",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "no-qr", Usage: "print only the code"},
			},
			Before: requiresSession,
			After:  closeProfile,
			Action: cmdInviteCreate,
		},
		{
			Name:      "show",
			Usage:     "Show who an invite is from",
			ArgsUsage: "CODE",
			Before:    requiresSession,
			After:     closeProfile,
			Action:    cmdInviteShow,
		},
		{
			Name:      "accept",
			Usage:     "Accept an invite",
			ArgsUsage: "CODE",
			Before:    requiresSession,
			After:     closeProfile,
			Action:    cmdInviteAccept,
		},
	},
}

var presenceCommand = &cli.Command{
	Name:      "presence",
	Usage:     "List contacts with their online status",
	ArgsUsage: "[QUERY]",
	Before:    requiresSession,
	After:     closeProfile,
	Action:    cmdPresence,
}

func cmdFriendsList(ctx *cli.Context) error {
	fm := getClient(ctx).Session.Friends()
	if err := fm.Refresh(ctx.Context); err != nil {
		return err
	}
	ids := fm.Friends()
	if ctx.Bool("json") {
		outputJSON(ids)
		return nil
	}
	if len(ids) == 0 {
		fmt.Println("No friends yet.")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func cmdFriendsAdd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("you must specify a user id")
	}
	id := ctx.Args().First()
	if err := getClient(ctx).Session.Friends().Add(ctx.Context, id); err != nil {
		return err
	}
	fmt.Printf("You and %s are now friends.\n", id)
	return nil
}

func cmdFriendsRemove(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("you must specify a user id")
	}
	fm := getClient(ctx).Session.Friends()
	if err := fm.Refresh(ctx.Context); err != nil {
		return err
	}
	req, err := fm.RequestRemove(ctx.Args().First())
	if err != nil {
		return err
	}
	return confirmRequest(ctx, req)
}

type inviteView struct {
	Code      string    `json:"code"`
	From      string    `json:"from"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func newInviteView(inv friends.Invite) inviteView {
	return inviteView{Code: inv.Code, From: inv.From, Name: inv.Name, CreatedAt: inv.CreatedAt}
}

func cmdInviteCreate(ctx *cli.Context) error {
	inv, err := getClient(ctx).Session.Friends().CreateInvite(ctx.Context)
	if err != nil {
		return err
	}
	if ctx.Bool("json") {
		outputJSON(newInviteView(inv))
		return nil
	}
	if !ctx.Bool("no-qr") {
		qr, err := qrcode.New(inv.Code, qrcode.Low)
		if err != nil {
			return fmt.Errorf("render QR code: %w", err)
		}
		fmt.Println(qr.ToSmallString(false))
	}
	fmt.Printf("Invite code: %s\n", inv.Code)
	fmt.Println("Share it and have your friend run 'lchatctl invites accept <code>'.")
	return nil
}

func cmdInviteShow(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("you must specify an invite code")
	}
	inv, err := getClient(ctx).Session.Friends().LookupInvite(ctx.Context, ctx.Args().First())
	if err != nil {
		return err
	}
	if ctx.Bool("json") {
		outputJSON(newInviteView(inv))
		return nil
	}
	fmt.Printf("Invite from %s (%s), created %s\n", inv.Name, inv.From, inv.CreatedAt.Local().Format(time.DateTime))
	return nil
}

func cmdInviteAccept(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("you must specify an invite code")
	}
	inv, err := getClient(ctx).Session.Friends().AcceptInvite(ctx.Context, ctx.Args().First())
	if err != nil {
		return err
	}
	fmt.Printf("You and %s are now friends.\n", inv.Name)
	return nil
}

type contactView struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen,omitzero"`
	Friend   bool      `json:"friend"`
}

func cmdPresence(ctx *cli.Context) error {
	s := getClient(ctx).Session
	if err := s.Friends().Refresh(ctx.Context); err != nil {
		return err
	}
	contacts, err := s.LoadContacts(ctx.Context, ctx.Args().First())
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		views := make([]contactView, 0, len(contacts))
		for _, c := range contacts {
			if c.Fixed {
				continue
			}
			views = append(views, contactView{ID: c.ID, Name: c.Name, Online: c.Online, LastSeen: c.LastSeen, Friend: c.Friend})
		}
		outputJSON(views)
		return nil
	}
	now := time.Now()
	for _, c := range contacts {
		if c.Fixed {
			continue
		}
		state := "last seen " + presence.LastSeen(c.LastSeen, now)
		if c.Online {
			state = "online"
		}
		mark := " "
		if c.Friend {
			mark = "*"
		}
		fmt.Printf("%s %-20s %-20s %s\n", mark, c.Name, c.ID, state)
	}
	return nil
}
