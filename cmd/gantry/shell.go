package main

import (
	"context"
	"fmt"
	"strings"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session against the activated modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close(ctx)

			sh := &shell{ctx: ctx, sess: sess}
			sh.banner()
			sh.prompt()
			return keyboard.Listen(sh.handleKey)
		},
	}
}

// shell is a line editor over raw key events with per-session history.
type shell struct {
	ctx     context.Context
	sess    *session
	buf     []rune
	history []string
	histIdx int
}

func (s *shell) handleKey(key keys.Key) (bool, error) {
	switch key.Code {
	case keys.CtrlC, keys.CtrlD, keys.Escape:
		fmt.Println()
		return true, nil
	case keys.Enter:
		fmt.Println()
		line := strings.TrimSpace(string(s.buf))
		s.buf = s.buf[:0]
		if line != "" {
			s.history = append(s.history, line)
			s.histIdx = len(s.history)
			if s.execute(line) {
				return true, nil
			}
		}
		s.prompt()
	case keys.Backspace:
		if len(s.buf) > 0 {
			s.buf = s.buf[:len(s.buf)-1]
			fmt.Print("\b \b")
		}
	case keys.Up:
		if s.histIdx > 0 {
			s.histIdx--
			s.setLine(s.history[s.histIdx])
		}
	case keys.Down:
		if s.histIdx < len(s.history)-1 {
			s.histIdx++
			s.setLine(s.history[s.histIdx])
		} else if s.histIdx < len(s.history) {
			s.histIdx = len(s.history)
			s.setLine("")
		}
	case keys.Space:
		s.buf = append(s.buf, ' ')
		fmt.Print(" ")
	case keys.RuneKey:
		s.buf = append(s.buf, key.Runes...)
		fmt.Print(string(key.Runes))
	}
	return false, nil
}

// execute runs one shell command. It reports whether the shell should
// exit.
func (s *shell) execute(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.help()
	case "list", "ls":
		for _, id := range s.sess.rt.ActiveModules() {
			if deps := s.sess.rt.Graph().DependenciesOf(id); len(deps) > 0 {
				fmt.Printf("  %s -> %s\n", id, strings.Join(deps, ", "))
			} else {
				fmt.Printf("  %s\n", id)
			}
		}
	case "order":
		order, err := s.sess.rt.Graph().LoadOrder()
		if err != nil {
			s.printErr(err)
			return false
		}
		fmt.Printf("  %s\n", strings.Join(order, " -> "))
	case "activate":
		if len(fields) != 2 {
			s.usage("activate MODULE")
			return false
		}
		if err := s.sess.activate(s.ctx, fields[1]); err != nil {
			s.printErr(err)
			return false
		}
		fmt.Printf("  activated %s\n", fields[1])
	case "deactivate":
		if len(fields) != 2 {
			s.usage("deactivate MODULE")
			return false
		}
		if err := s.sess.rt.Deactivate(s.ctx, fields[1]); err != nil {
			s.printErr(err)
			return false
		}
		fmt.Printf("  deactivated %s\n", fields[1])
	case "lookup":
		if len(fields) != 3 {
			s.usage("lookup MODULE SYMBOL")
			return false
		}
		u, err := s.sess.rt.LookupSymbol(s.ctx, fields[1], fields[2])
		if err != nil {
			s.printErr(err)
			return false
		}
		printUnit(u)
	case "resource":
		if len(fields) != 3 {
			s.usage("resource MODULE NAME")
			return false
		}
		bs, err := s.sess.rt.LookupOwnResource(s.ctx, fields[1], fields[2])
		if err != nil {
			s.printErr(err)
			return false
		}
		data, err := bs.ReadAll(s.ctx)
		if err != nil {
			s.printErr(err)
			return false
		}
		fmt.Printf("  %s: %d bytes\n", fields[2], len(data))
	default:
		s.printErr(fmt.Errorf("unknown command %q (try help)", fields[0]))
	}
	return false
}

func (s *shell) banner() {
	fmt.Printf("gantry %s - %d modules active (help for commands)\n",
		version, len(s.sess.rt.ActiveModules()))
}

func (s *shell) prompt() {
	fmt.Print(color.CyanString("gantry> "))
}

// setLine replaces the visible input line, used by history navigation.
func (s *shell) setLine(line string) {
	fmt.Print("\r\033[K")
	s.prompt()
	fmt.Print(line)
	s.buf = []rune(line)
}

func (s *shell) printErr(err error) {
	fmt.Printf("  %s\n", color.RedString(err.Error()))
}

func (s *shell) usage(u string) {
	fmt.Printf("  usage: %s\n", u)
}

func (s *shell) help() {
	fmt.Print(`  activate MODULE        activate a module from its manifest
  deactivate MODULE      discard a module's loader and namespace
  lookup MODULE SYMBOL   resolve a symbol through the module graph
  resource MODULE NAME   read a resource from the module's own source
  list                   list active modules and their dependencies
  order                  print the dependencies-first load order
  quit                   leave the shell
`)
}
