package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/matheus3301/letschat/internal/client"
	"github.com/matheus3301/letschat/internal/tui"
)

func main() {
	profileFlag := pflag.StringP("profile", "p", "", "profile name (overrides config default)")
	noStart := pflag.Bool("no-start-hub", false, "fail instead of starting lchatd when no hub is running")
	pflag.Parse()

	c, err := client.Open(client.Options{
		Profile:   *profileFlag,
		Component: "lchat",
		AutoStart: !*noStart,
	})
	if errors.Is(err, client.ErrNoIdentity) {
		fmt.Fprintln(os.Stderr, "no identity for this profile yet, create one with 'lchatctl sign-in --id <user id> --name <display name>'")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := tui.NewApp(c.Session, c.Profile, c.Logger).Run()
	if err := c.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close profile: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
