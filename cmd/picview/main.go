package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"photo-viewer/internal/app"
	"photo-viewer/internal/startup"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errVersion):
		info := startup.GetBuildInfo()
		fmt.Fprintf(stdout, "picview %s (%s, %s, %s/%s)\n", info.Version, info.Commit, info.GoVersion, info.OS, info.Arch)
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "picview: %v\n", err)
		return 2
	}
	opts.Stdout = stdout

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(stderr, "picview: %v\n", err)
		return 1
	}
	return 0
}

var errVersion = errors.New("version requested")

func parseFlags(args []string, stderr io.Writer) (app.Options, error) {
	fs := flag.NewFlagSet("picview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: picview [flags] <file|dir|playlist>...")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	var opts app.Options
	fs.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/photo-viewer/config.toml)")
	fs.StringVar(&opts.Snapshot, "snapshot", "", "render the first image to this file and exit")
	fs.BoolVar(&opts.Print, "print", false, "print the first image to the terminal and exit")
	fs.StringVar(&opts.Size, "size", "", "viewport WxH for -snapshot and -print")
	fs.Float64Var(&opts.Zoom, "zoom", 0, "zoom ratio for -snapshot and -print (0 fits the viewport)")
	fs.BoolVar(&opts.ShowInfo, "info", false, "show the info overlay")
	fs.BoolVar(&opts.Recursive, "recursive", false, "include subdirectories")
	fs.StringVar(&opts.Sort, "sort", "", "sort by name, date or size")
	noVips := fs.Bool("novips", false, "do not start libvips")
	version := fs.Bool("version", false, "print version information")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if *version {
		return opts, errVersion
	}
	if opts.Zoom < 0 {
		return opts, fmt.Errorf("-zoom must not be negative, got %g", opts.Zoom)
	}
	if opts.Snapshot != "" && opts.Print {
		return opts, errors.New("-snapshot and -print are mutually exclusive")
	}
	opts.Vips = !*noVips
	opts.Paths = fs.Args()
	return opts, nil
}
