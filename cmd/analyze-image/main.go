package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/raine/skybet/internal/analysis"
	"github.com/raine/skybet/internal/app"
	"github.com/raine/skybet/internal/config"
	"github.com/raine/skybet/internal/imagedata"
)

func main() {
	var mode, text string
	flag.StringVar(&mode, "mode", "rounds", "Analysis: rounds or fairness")
	flag.StringVar(&text, "text", "", "Typed round data sent along with the images")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-mode rounds|fairness] [-text data] <image-path>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  LLM_PROVIDER - gemini, openai or claude\n")
		fmt.Fprintf(os.Stderr, "  LLM_API_KEY  - Key for the provider\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 && strings.TrimSpace(text) == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	in := analysis.Input{Text: text}
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
			os.Exit(1)
		}
		img, err := imagedata.FromBytes(data, cfg.MaxImageBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
		in.Images = append(in.Images, img)
	}

	a, err := app.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.InitPipeline(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	var result any
	switch mode {
	case "rounds":
		result, err = a.Pipeline.Rounds(ctx, in)
	case "fairness":
		result, err = a.Pipeline.Fairness(ctx, in)
	default:
		fmt.Fprintf(os.Stderr, "Unknown mode: %s (use rounds or fairness)\n", mode)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing image: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		os.Exit(1)
	}
}
