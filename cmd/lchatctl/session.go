package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/client"
	"github.com/matheus3301/letschat/internal/config"
	"github.com/matheus3301/letschat/internal/confirm"
	"github.com/matheus3301/letschat/internal/profile"
	"github.com/matheus3301/letschat/internal/status"
)

var statusCommand = &cli.Command{
	Name:   "status",
	Usage:  "Show profile, identity and hub status",
	Action: cmdStatus,
}

var signInCommand = &cli.Command{
	Name:  "sign-in",
	Usage: "Sign in, creating the profile identity on first use",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "user id for a new identity"},
		&cli.StringFlag{Name: "name", Usage: "display name"},
		&cli.StringFlag{Name: "photo", Usage: "photo URL"},
		&cli.BoolFlag{Name: "restore", Usage: "after a sign-out, keep the existing account data"},
		&cli.BoolFlag{Name: "fresh", Usage: "after a sign-out, erase the account and start fresh"},
	},
	After:  closeProfile,
	Action: cmdSignIn,
}

var signOutCommand = &cli.Command{
	Name:   "sign-out",
	Usage:  "Go offline and mark the profile as signed out",
	Before: requiresSession,
	After:  closeProfile,
	Action: cmdSignOut,
}

var wipeCommand = &cli.Command{
	Name:   "wipe",
	Usage:  "Erase friends, presence and conversations of this profile",
	Before: openProfile,
	After:  closeProfile,
	Action: cmdWipe,
}

type statusView struct {
	Profile     string `json:"profile"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	HubSocket   string `json:"hub_socket"`
	HubRunning  bool   `json:"hub_running"`
}

func cmdStatus(ctx *cli.Context) error {
	cfg, name, err := client.Settings(ctx.String("profile"))
	if err != nil {
		return err
	}
	view := statusView{Profile: name, HubSocket: client.SocketPath(cfg)}
	view.HubRunning = client.ProbeHub(view.HubSocket)
	if id, err := config.LoadIdentity(profile.IdentityPath(name)); err == nil {
		view.UserID = id.UserID
		view.DisplayName = id.DisplayName
	}

	if ctx.Bool("json") {
		outputJSON(view)
		return nil
	}
	fmt.Printf("Profile: %s\n", view.Profile)
	if view.UserID == "" {
		fmt.Println("User:    (not signed in)")
	} else {
		fmt.Printf("User:    %s (%s)\n", view.DisplayName, view.UserID)
	}
	running := "stopped"
	if view.HubRunning {
		running = "running"
	}
	fmt.Printf("Hub:     %s (%s)\n", view.HubSocket, running)
	return nil
}

func cmdSignIn(ctx *cli.Context) error {
	if err := writeIdentity(ctx); err != nil {
		return err
	}
	if err := openProfile(ctx); err != nil {
		return err
	}
	c := getClient(ctx)
	s := c.Session

	needChoice, err := s.SignIn(ctx.Context)
	if err != nil {
		return err
	}
	if needChoice {
		switch {
		case ctx.Bool("restore"):
			err = s.ChooseRestore(ctx.Context)
		case ctx.Bool("fresh"):
			req, askErr := s.ChooseStartFresh()
			if askErr != nil {
				return askErr
			}
			err = confirmRequest(ctx, req)
		default:
			return errors.New("this profile signed out earlier, pass --restore to keep its data or --fresh to erase it")
		}
		if err != nil {
			return err
		}
	}
	if s.State() != status.Online {
		return nil
	}
	fmt.Printf("Signed in as %s (%s).\n", c.Identity.DisplayName, c.Identity.UserID)
	return nil
}

// writeIdentity creates or updates identity.toml from the sign-in flags.
func writeIdentity(ctx *cli.Context) error {
	_, name, err := client.Settings(ctx.String("profile"))
	if err != nil {
		return err
	}
	path := profile.IdentityPath(name)
	id, err := config.LoadIdentity(path)
	if err != nil {
		id = &config.Identity{}
	}

	changed := false
	if v := ctx.String("id"); v != "" && v != id.UserID {
		if id.UserID != "" {
			return fmt.Errorf("profile %q already belongs to %s", name, id.UserID)
		}
		id.UserID = v
		changed = true
	}
	if v := ctx.String("name"); v != "" {
		id.DisplayName = v
		changed = true
	}
	if v := ctx.String("photo"); v != "" {
		id.Photo = v
		changed = true
	}
	if id.UserID == "" {
		return errors.New("no identity yet, pass --id to create one")
	}
	if id.DisplayName == "" {
		id.DisplayName = id.UserID
		changed = true
	}
	if !changed {
		return nil
	}
	if err := (address.Identity{ID: id.UserID, Name: id.DisplayName}).Validate(); err != nil {
		return err
	}
	return config.SaveIdentity(path, id)
}

func cmdSignOut(ctx *cli.Context) error {
	if err := getClient(ctx).Session.SignOut(ctx.Context); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func cmdWipe(ctx *cli.Context) error {
	s := getClient(ctx).Session
	return confirmRequest(ctx, s.Friends().RequestWipe())
}

// confirmRequest asks on the terminal unless --yes was given, then settles req.
func confirmRequest(ctx *cli.Context, req confirm.Request) error {
	accept := ctx.Bool("yes")
	if !accept {
		fmt.Fprintf(os.Stderr, "%s [y/N] ", req.Prompt)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			accept = true
		}
	}
	if err := getClient(ctx).Session.Resolve(ctx.Context, req.ID, accept); err != nil {
		return err
	}
	if !accept {
		fmt.Println("Cancelled.")
	}
	return nil
}
