package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/raine/skybet/internal/app"
	"github.com/raine/skybet/internal/config"
	"github.com/raine/skybet/internal/report"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  show               Print the formatted history\n")
	fmt.Fprintf(os.Stderr, "  merge <text>       Merge multipliers found in text\n")
	fmt.Fprintf(os.Stderr, "  clear              Remove all recorded multipliers\n")
	fmt.Fprintf(os.Stderr, "  stats              Print summary statistics\n")
	fmt.Fprintf(os.Stderr, "  export [csv|json]  Write the history to stdout\n")
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()
	ledger := a.Ledger

	switch cmd := flag.Arg(0); cmd {
	case "show":
		fmt.Println(ledger.Formatted(ctx))
	case "merge":
		text := strings.Join(flag.Args()[1:], " ")
		before := len(ledger.Snapshot(ctx))
		after := ledger.Merge(ctx, text)
		fmt.Printf("Added %d, total %d\n", len(after)-before, len(after))
	case "clear":
		if err := ledger.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing history: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("History cleared")
	case "stats":
		s := report.Summarize(ledger.Snapshot(ctx))
		fmt.Printf("Rounds:   %d (%d readable)\n", s.Count, s.Parsed)
		if s.Parsed > 0 {
			fmt.Printf("Mean:     %.2fx\n", s.Mean)
			fmt.Printf("Median:   %.2fx\n", s.Median)
			fmt.Printf("Std dev:  %.2f\n", s.StdDev)
			fmt.Printf("Min/max:  %.2fx / %.2fx\n", s.Min, s.Max)
			fmt.Printf(">= 2x:    %d\n", s.Above2x)
			fmt.Printf(">= 10x:   %d\n", s.Above10x)
		}
	case "export":
		format := "csv"
		if flag.NArg() > 1 {
			format = flag.Arg(1)
		}
		if err := report.Export(os.Stdout, format, ledger.Snapshot(ctx)); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting history: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}
