// flashctl inspects and manipulates circular-log flash image files.
//
// Usage:
//
//	flashctl create --size <bytes> <image>   Create an erased flash image
//	flashctl info [flags] <image>            Show log state
//	flashctl add [flags] <image> <text>      Append one entry
//	flashctl dump [flags] <image>            Print entries oldest to newest
//	flashctl browse [flags] <image>          Interactive cursor REPL
//
// Shared flags:
//
//	-d, --datasize    Entry payload size in bytes (default 252)
//	-t, --table       Partition table file (HuJSON); without it the
//	                  whole image is treated as one log region
//	-p, --partition   Partition label to use (default: first log partition)
package main

import (
	"bytes"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/flashlog/internal/cli"
	"github.com/calvinalkan/flashlog/pkg/blockdev"
	"github.com/calvinalkan/flashlog/pkg/flashlog"
)

func main() {
	o := cli.NewIO(os.Stdout, os.Stderr)
	os.Exit(run(o, os.Args[1:]))
}

func run(o *cli.IO, args []string) int {
	commands := []*cli.Command{
		createCommand(),
		infoCommand(),
		addCommand(),
		dumpCommand(),
		browseCommand(),
	}

	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		printUsage(o, commands)
		return 0
	}

	for _, c := range commands {
		if c.Name() == args[0] {
			return c.Run(o, args[1:])
		}
	}

	o.ErrPrintln("error: unknown command:", args[0])
	o.ErrPrintln()
	printUsage(o, commands)

	return 1
}

func printUsage(o *cli.IO, commands []*cli.Command) {
	o.Println("Usage: flashctl <command> [flags] <image>")
	o.Println()
	o.Println("Commands:")

	for _, c := range commands {
		o.Println(c.HelpLine())
	}

	o.Println()
	o.Println("Run 'flashctl <command> --help' for details.")
}

// logFlags are the options shared by every command that opens a log.
type logFlags struct {
	datasize  int
	tablePath string
	partition string
}

func (lf *logFlags) register(fs *flag.FlagSet) {
	fs.IntVarP(&lf.datasize, "datasize", "d", 252, "entry payload size in bytes")
	fs.StringVarP(&lf.tablePath, "table", "t", "", "partition table file (HuJSON)")
	fs.StringVarP(&lf.partition, "partition", "p", "", "partition label (default: first log partition)")
}

// openLog opens the image and a log session on it. The caller must
// close the returned log and device, in that order.
func (lf *logFlags) openLog(imagePath string) (*flashlog.Log, *blockdev.File, error) {
	dev, err := blockdev.OpenFile(imagePath)
	if err != nil {
		return nil, nil, err
	}

	opts := flashlog.Options{DataSize: lf.datasize}

	var log *flashlog.Log

	if lf.tablePath != "" {
		tbl, tblErr := blockdev.LoadTable(lf.tablePath)
		if tblErr != nil {
			_ = dev.Close()
			return nil, nil, tblErr
		}

		log, err = flashlog.OpenPartition(dev, tbl, lf.partition, opts)
	} else {
		log, err = flashlog.Open(dev, opts)
	}

	if err != nil {
		_ = dev.Close()
		return nil, nil, err
	}

	return log, dev, nil
}

func createCommand() *cli.Command {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)

	var sizeBytes int64

	fs.Int64Var(&sizeBytes, "size", 16*blockdev.EraseBlockSize, "image size in bytes (multiple of 4096)")

	return &cli.Command{
		Flags: fs,
		Usage: "create --size <bytes> <image>",
		Short: "Create an erased flash image file",
		Long: "Create a flash image file filled with the erased state (0xFF).\n" +
			"The image is written atomically; an existing image is replaced.",
		Exec: func(o *cli.IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one image path, got %d args", len(args))
			}

			if err := blockdev.CreateImage(args[0], sizeBytes); err != nil {
				return err
			}

			o.Printf("created %s (%d bytes, %d erase blocks)\n",
				args[0], sizeBytes, sizeBytes/blockdev.EraseBlockSize)

			return nil
		},
	}
}

func infoCommand() *cli.Command {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)

	var lf logFlags

	lf.register(fs)

	return &cli.Command{
		Flags: fs,
		Usage: "info [flags] <image>",
		Short: "Show log geometry and state",
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

			printStats(o, log.Stats())

			return nil
		},
	}
}

func printStats(o *cli.IO, s flashlog.Stats) {
	o.Printf("datasize:        %d bytes\n", s.DataSize)
	o.Printf("slots:           %d (%d per erase block)\n", s.NumSlots, s.SlotsPerBlock)
	o.Printf("in use:          %d\n", s.NumInUse)
	o.Printf("highest seqno:   %d\n", s.HighestSeq)

	if s.NumInUse > 0 {
		o.Printf("oldest slot:     %d\n", s.Oldest)
		o.Printf("newest slot:     %d\n", s.Newest)
	}
}

func addCommand() *cli.Command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)

	var lf logFlags

	lf.register(fs)

	return &cli.Command{
		Flags: fs,
		Usage: "add [flags] <image> <text>",
		Short: "Append one entry",
		Long: "Append <text> as a new entry. Text shorter than the payload\n" +
			"size is padded with zero bytes; longer text is rejected.",
		Exec: func(o *cli.IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <image> and <text>, got %d args", len(args))
			}

			log, dev, err := lf.openLog(args[0])
			if err != nil {
				return err
			}
			defer dev.Close()
			defer log.Close()

			payload, err := padPayload([]byte(args[1]), log.Stats().DataSize)
			if err != nil {
				return err
			}

			seq, err := log.Append(payload)
			if err != nil {
				return err
			}

			o.Printf("appended entry %d\n", seq)

			return nil
		},
	}
}

func dumpCommand() *cli.Command {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)

	var (
		lf      logFlags
		reverse bool
		limit   int
	)

	lf.register(fs)
	fs.BoolVarP(&reverse, "reverse", "r", false, "newest first")
	fs.IntVarP(&limit, "limit", "n", 0, "max entries to print (0 = all)")

	return &cli.Command{
		Flags: fs,
		Usage: "dump [flags] <image>",
		Short: "Print entries oldest to newest",
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

			return dumpEntries(o, log, reverse, limit)
		},
	}
}

// dumpEntries walks the live arc in the requested direction.
func dumpEntries(o *cli.IO, log *flashlog.Log, reverse bool, limit int) error {
	goStart, goStep := log.GotoOldest, log.GotoNext
	if reverse {
		goStart, goStep = log.GotoNewest, log.GotoPrev
	}

	err := goStart()
	if err != nil {
		o.Println("log is empty")
		return nil
	}

	printed := 0

	for ; err == nil; err = goStep() {
		if limit > 0 && printed >= limit {
			return nil
		}

		entry, readErr := log.Read()
		if readErr != nil {
			return readErr
		}

		o.Printf("%8d  %s\n", entry.Seq, formatPayload(entry.Data))
		printed++
	}

	return nil
}

// padPayload zero-pads text to the fixed payload size.
func padPayload(text []byte, datasize int) ([]byte, error) {
	if len(text) > datasize {
		return nil, fmt.Errorf("text is %d bytes, payload limit is %d", len(text), datasize)
	}

	payload := make([]byte, datasize)
	copy(payload, text)

	return payload, nil
}

// formatPayload renders a payload for display, trimming the zero
// padding and the erased filler.
func formatPayload(data []byte) string {
	trimmed := bytes.TrimRight(data, "\x00\xFF")

	return fmt.Sprintf("%q", trimmed)
}
