package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/npcgate/internal/interaction"
)

const sessionHelp = `commands:
  talk <npc>     interact with an NPC
  state [npc]    show one or every partner state
  reset [npc]    forget one or every partner
  help           show this help
  quit           leave the session`

// runSession reads commands from in until quit, EOF or ctx is done.
// Every talk runs in the foreground so the transcript stays ordered.
func runSession(ctx context.Context, m *interaction.Machine, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "npcgate session, game %s. Type help for commands.\n", m.Game())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		var err error
		switch fields[0] {
		case "talk", "t":
			if arg == "" {
				fmt.Fprintln(out, "usage: talk <npc>")
				continue
			}
			_, err = m.Interact(ctx, arg)
		case "state", "s":
			err = printState(ctx, m, arg, out)
		case "reset", "r":
			err = m.Reset(ctx, arg)
		case "help", "h", "?":
			fmt.Fprintln(out, sessionHelp)
		case "quit", "exit", "q":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
		if err != nil {
			return err
		}
	}
}

func printState(ctx context.Context, m *interaction.Machine, partner string, out io.Writer) error {
	var v any
	if partner != "" {
		st, err := m.State(ctx, partner)
		if err != nil {
			return err
		}
		v = st
	} else {
		states, err := m.States(ctx)
		if err != nil {
			return err
		}
		v = states
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return enc.Close()
}
