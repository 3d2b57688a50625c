package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/flashlog/internal/cli"
	"github.com/calvinalkan/flashlog/pkg/flashlog"
)

const browseHelp = `Commands:
  oldest           Move the cursor to the oldest entry
  newest           Move the cursor to the newest entry
  next             Move one entry toward the newest
  prev             Move one entry toward the oldest
  read             Print the entry at the cursor
  add <text>       Append a new entry
  info             Show log state
  help             Show this help
  exit / quit / q  Exit`

func browseCommand() *cli.Command {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)

	var lf logFlags

	lf.register(fs)

	return &cli.Command{
		Flags: fs,
		Usage: "browse [flags] <image>",
		Short: "Interactive cursor REPL over the log",
		Long: "Walk the log with the bidirectional cursor: oldest/newest/next/prev\n" +
			"position it, read prints the entry there, add appends new entries.",
		Exec: func(o *cli.IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one image path, got %d args", len(args))
			}

			log, dev, err := lf.openLog(args[0])
			if err != nil {
				return err
			}
			defer dev.Close()
			defer log.Close()

			return browse(o, log)
		},
	}
}

func browse(o *cli.IO, log *flashlog.Log) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	o.Println("flashctl browse - 'help' for commands")
	printStats(o, log.Stats())

	for {
		input, err := line.Prompt("flash> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		cmd, rest, _ := strings.Cut(input, " ")
		if done := browseStep(o, log, cmd, strings.TrimSpace(rest)); done {
			return nil
		}
	}
}

// browseStep executes one REPL command. Returns true to exit.
func browseStep(o *cli.IO, log *flashlog.Log, cmd, arg string) bool {
	var err error

	switch cmd {
	case "oldest":
		err = log.GotoOldest()
	case "newest":
		err = log.GotoNewest()
	case "next":
		err = log.GotoNext()
	case "prev":
		err = log.GotoPrev()
	case "read":
		err = readAtCursor(o, log)
	case "add":
		err = addEntry(o, log, arg)
	case "info":
		printStats(o, log.Stats())
	case "help":
		o.Println(browseHelp)
	case "exit", "quit", "q":
		return true
	default:
		o.Println("unknown command; 'help' for commands")
		return false
	}

	if err != nil {
		o.Println("error:", err)
	} else if cmd == "oldest" || cmd == "newest" || cmd == "next" || cmd == "prev" {
		o.Printf("cursor at slot %d\n", log.Stats().Current)
	}

	return false
}

func readAtCursor(o *cli.IO, log *flashlog.Log) error {
	entry, err := log.Read()
	if err != nil {
		return err
	}

	o.Printf("%8d  %s\n", entry.Seq, formatPayload(entry.Data))

	return nil
}

func addEntry(o *cli.IO, log *flashlog.Log, text string) error {
	if text == "" {
		return errors.New("add requires text")
	}

	payload, err := padPayload([]byte(text), log.Stats().DataSize)
	if err != nil {
		return err
	}

	seq, err := log.Append(payload)
	if err != nil {
		return err
	}

	o.Printf("appended entry %d\n", seq)

	return nil
}
