package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mkowalski/designsync/internal/asset"
	"github.com/mkowalski/designsync/internal/catalog"
	"github.com/mkowalski/designsync/internal/cms"
	"github.com/mkowalski/designsync/internal/config"
	"github.com/mkowalski/designsync/internal/drift"
	"github.com/mkowalski/designsync/internal/logging"
	"github.com/mkowalski/designsync/internal/match"
	"github.com/mkowalski/designsync/internal/tracking"
	"github.com/mkowalski/designsync/internal/watch"
)

var Version = "dev"

const usage = `usage: designsync <command> [args]

commands:
  classify <path>...   print the asset kind of each path
  match <path>...      resolve paths against the remote catalog
  status               report locally modified files
  watch                watch the tracked tree and log classified changes
  version              print the version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	if cmd == "version" {
		fmt.Println(Version)
		return
	}

	if err := run(cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "classify":
		return runClassify(cfg, args)
	case "match":
		return runMatch(ctx, cfg, logger, args)
	case "status":
		return runStatus(cfg)
	case "watch":
		return runWatch(ctx, cfg, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runClassify(cfg *config.Config, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("classify needs at least one path")
	}

	classifier := asset.NewClassifier(cfg.Base)

	for _, path := range paths {
		kind := classifier.Classify(path)
		if !kind.Known() {
			fmt.Printf("%s: unrecognized\n", path)
			continue
		}

		fmt.Printf("%s: %s\n", path, kind)
	}

	return nil
}

func runMatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("match needs at least one path")
	}

	client := cms.NewClient(cfg.ServerURL, cfg.AppKey, nil)

	cat, err := catalog.Load(ctx, client, logger)
	if err != nil {
		return err
	}

	etags, err := tracking.OpenEtags(cfg.Base)
	if err != nil {
		logger.Warn("etag store unavailable", slog.String("error", err.Error()))
	} else {
		defer etags.Close()
	}

	store := tracking.NewStore(cfg.Base, etags)
	classifier := asset.NewClassifier(cfg.Base)
	matcher := match.New(cat, store, classifier, logger)

	for _, path := range paths {
		ref, err := resolve(matcher, classifier, path)
		if err != nil {
			return fmt.Errorf("matching %s: %w", path, err)
		}

		if ref == nil {
			fmt.Printf("%s: no remote match\n", path)
			continue
		}

		out, err := json.MarshalIndent(ref, "", "  ")
		if err != nil {
			return err
		}

		fmt.Printf("%s: %s\n", path, out)
	}

	return nil
}

// resolve dispatches a path to the matcher for its family. Elements are
// checked first: widget-scoped elements also classify into the widget
// family but resolve through the element flow.
func resolve(matcher *match.Matcher, classifier *asset.Classifier, path string) (any, error) {
	kind := classifier.Classify(path)

	switch {
	case kind.IsElement():
		return nilable(matcher.Element(path))
	case kind.IsThemeFamily() && !kind.IsDirectoryMarker():
		return nilable(matcher.Theme(path))
	case kind.IsWidgetFamily() && kind.IsInstance():
		return nilable(matcher.WidgetInstance(path))
	case kind.IsWidgetFamily() && !kind.IsDirectoryMarker():
		return nilable(matcher.Widget(path))
	case kind.IsStackFamily() && kind.IsInstance():
		return nilable(matcher.StackInstance(path))
	case kind.IsStackFamily() && !kind.IsDirectoryMarker():
		return nilable(matcher.Stack(path))
	}

	return nil, fmt.Errorf("kind %q has no remote counterpart", kind)
}

// nilable flattens a typed nil ref pointer into an untyped nil so
// callers can test it without reflection.
func nilable[T any](ref *T, err error) (any, error) {
	if err != nil || ref == nil {
		return nil, err
	}

	return ref, nil
}

func runStatus(cfg *config.Config) error {
	changes, err := drift.NewReporter(cfg.Base).Scan()
	if err != nil {
		return err
	}

	if len(changes) == 0 {
		fmt.Println("clean: no local modifications")
		return nil
	}

	for _, c := range changes {
		switch {
		case c.Deleted:
			fmt.Printf("deleted   %s\n", c.Path)
		default:
			fmt.Printf("modified  %s (+%d -%d)\n", c.Path, c.LinesAdded, c.LinesRemoved)
		}
	}

	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	watcher := watch.New(cfg.Base, asset.NewClassifier(cfg.Base), logger)

	logger.Info("watching", slog.String("base", cfg.Base))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Run(gctx)
	})

	g.Go(func() error {
		for ev := range watcher.Events() {
			kind := "unrecognized"
			if ev.Kind.Known() {
				kind = string(ev.Kind)
			}

			logger.Info("change",
				slog.String("path", ev.Path),
				slog.String("kind", kind),
				slog.String("op", ev.Op.String()))
		}

		return nil
	})

	return g.Wait()
}
