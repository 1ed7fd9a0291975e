package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/matheus3301/letschat/internal/client"
)

type contextKey int

const (
	contextKeyClient contextKey = iota
)

func getClient(ctx *cli.Context) *client.Client {
	val := ctx.Context.Value(contextKeyClient)
	if val == nil {
		return nil
	}
	return val.(*client.Client)
}

// openProfile opens the profile without signing in.
func openProfile(ctx *cli.Context) error {
	c, err := client.Open(client.Options{
		Profile:   ctx.String("profile"),
		Component: "lchatctl",
		AutoStart: ctx.Bool("start-hub"),
	})
	if err != nil {
		return err
	}
	ctx.Context = context.WithValue(ctx.Context, contextKeyClient, c)
	return nil
}

// requiresSession opens the profile and signs in. A profile that signed out
// explicitly must go through 'lchatctl sign-in --restore' or '--fresh' first.
func requiresSession(ctx *cli.Context) error {
	if err := openProfile(ctx); err != nil {
		return err
	}
	needChoice, err := getClient(ctx).Session.SignIn(ctx.Context)
	if err != nil {
		return err
	}
	if needChoice {
		return errors.New("this profile signed out, run 'lchatctl sign-in --restore' or 'lchatctl sign-in --fresh'")
	}
	return nil
}

func closeProfile(ctx *cli.Context) error {
	if c := getClient(ctx); c != nil {
		return c.Close()
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "lchatctl",
		Usage: "Scriptable letschat client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "profile",
				Usage: "profile name (overrides config default)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output in JSON format",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "accept confirmation prompts",
			},
			&cli.BoolFlag{
				Name:  "start-hub",
				Usage: "start lchatd when no hub is running",
				Value: true,
			},
		},
		Commands: []*cli.Command{
			statusCommand,
			signInCommand,
			signOutCommand,
			wipeCommand,
			sendCommand,
			historyCommand,
			editCommand,
			deleteCommand,
			reactCommand,
			botCommand,
			friendsCommand,
			invitesCommand,
			presenceCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
