// Command fontctxinfo opens the platform font context and prints what it
// knows: the handle, installed font families and a memory report.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/gogpu/fontctx"
	"github.com/gogpu/fontctx/memsize"
)

func main() {
	var (
		backend  = flag.String("backend", "platform", "backend: platform, scan or synthetic")
		fallback = flag.String("fallback", "synthetic", "fallback when the backend is unavailable: none, empty or synthetic")
		cacheDir = flag.String("cache", "", "font index directory for the scan backend")
		limit    = flag.Int("families", 20, "maximum number of families to print (0 for all)")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	fontctx.SetLogger(newLogger(os.Stderr, *verbose))

	opts, err := options(*backend, *fallback, *cacheDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fontctxinfo:", err)
		os.Exit(2)
	}

	h, err := fontctx.New(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fontctxinfo:", err)
		os.Exit(1)
	}
	defer h.Release()

	report(os.Stdout, h, *limit)
}

// newLogger logs text to terminals and JSON otherwise.
func newLogger(w *os.File, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(w.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func options(backend, fallback, cacheDir string) ([]fontctx.Option, error) {
	opts := []fontctx.Option{fontctx.WithCacheDir(cacheDir)}

	switch backend {
	case "platform":
	case "scan":
		opts = append(opts, fontctx.WithBackend(fontctx.ScanBackend(cacheDir)))
	case "synthetic":
		opts = append(opts, fontctx.WithBackend(fontctx.SyntheticBackend()))
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	switch fallback {
	case "none":
		opts = append(opts, fontctx.WithFallback(fontctx.FallbackNone))
	case "empty":
		opts = append(opts, fontctx.WithFallback(fontctx.FallbackEmpty))
	case "synthetic":
		opts = append(opts, fontctx.WithFallback(fontctx.FallbackSynthetic))
	default:
		return nil, fmt.Errorf("unknown fallback %q", fallback)
	}
	return opts, nil
}

func report(w io.Writer, h fontctx.Handle, limit int) {
	fmt.Fprintf(w, "platform: %s\n", fontctx.PlatformName())
	fmt.Fprintf(w, "handle:   %v\n", h)

	families, err := h.Families()
	if err != nil {
		fmt.Fprintf(w, "families: %v\n", err)
	} else {
		fmt.Fprintf(w, "families: %d\n", len(families))
		for i, f := range families {
			if limit > 0 && i >= limit {
				fmt.Fprintf(w, "  ... %d more\n", len(families)-limit)
				break
			}
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	rep := memsize.Collect()
	fmt.Fprintf(w, "memory:   %d bytes\n", rep.Total)
	for _, e := range rep.Entries {
		fmt.Fprintf(w, "  %-32s %d\n", e.Path, e.Size)
	}
}
