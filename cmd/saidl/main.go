package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jgivc/saidl/internal/app"
	"github.com/jgivc/saidl/internal/config"
)

const usage = `Usage: saidl <command> [flags]

Commands:
  hls   download the fragments of a playlist and join them
  eb    build an e-book from a web novel

Run "saidl <command> -h" for the command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var (
		cfg *config.Config
		run func(a *app.App, ctx context.Context) (string, error)
	)

	switch os.Args[1] {
	case "hls":
		cfg = parseHLS(os.Args[2:])
		run = (*app.App).RunMedia
	case "eb":
		cfg = parseEB(os.Args[2:])
		run = (*app.App).RunBook
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := run(a, ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: %s\n", out)
}

func parseHLS(args []string) *config.Config {
	fs := flag.NewFlagSet("hls", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to config file")
	input := fs.String("i", "", "Playlist file, only lines starting with http are fetched")
	headers := fs.String("H", "", "File with request headers, one \"Name: value\" per line")
	png := fs.Bool("p", false, "Strip the image signature prepended to every fragment")
	keep := fs.Bool("k", false, "Keep the working directory")
	output := fs.String("o", "", "Output file, <unix millis>.mp4 when empty")
	h2 := fs.Bool("h2", false, "Use HTTP/2")
	multi := fs.Bool("m", false, "Download all fragments at once")
	delay := fs.Float64("d", 0, "Delay in seconds after every fetch")
	retry := fs.Int("r", 0, "Retry count")
	fs.Parse(args)

	cfg := config.MustLoad(*cfgPath)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.Media.Input = *input
		case "H":
			cfg.HTTP.HeadersFile = *headers
		case "p":
			cfg.Media.PNG = *png
		case "k":
			cfg.Media.Keep = *keep
		case "o":
			cfg.Media.Output = *output
		case "h2":
			cfg.HTTP.H2 = *h2
		case "m":
			cfg.Media.MultiThread = *multi
		case "d":
			cfg.HTTP.Delay = time.Duration(*delay * float64(time.Second))
		case "r":
			cfg.HTTP.Retry = retry
		}
	})

	return cfg
}

func parseEB(args []string) *config.Config {
	fs := flag.NewFlagSet("eb", flag.ExitOnError)
	cfgPath := fs.String("i", "config.yml", "Path to config file")
	headers := fs.String("H", "", "File with request headers, one \"Name: value\" per line")
	h2 := fs.Bool("h2", false, "Use HTTP/2")
	chapterNum := fs.Bool("c", false, "Prefix chapter titles with \"Chapter N: \"")
	multi := fs.Bool("m", false, "Fetch table of contents and numbered chapters at once")
	fs.Parse(args)

	cfg := config.MustLoad(*cfgPath)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "H":
			cfg.HTTP.HeadersFile = *headers
		case "h2":
			cfg.HTTP.H2 = *h2
		case "c":
			cfg.Book.ChapterNum = *chapterNum
		case "m":
			cfg.Book.MultiThread = *multi
		}
	})

	return cfg
}
