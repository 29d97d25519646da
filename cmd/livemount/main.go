// Livemount drives a real Chrome page and keeps the shortcut panel mounted
// in it. The panel subtree is built and serialized in Go, so user text is
// escaped by the renderer before it ever reaches the page; the injected
// string is markup for the panel chrome only, never raw user input.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"mailpanel/config"
	"mailpanel/kvstore"
	"mailpanel/logging"
	"mailpanel/panel"
	"mailpanel/store"
)

func main() {
	url := flag.String("url", "", "page to mount the panel into")
	timeout := flag.Duration("timeout", 2*time.Minute, "how long to keep the panel alive")
	interval := flag.Duration("interval", 500*time.Millisecond, "poll interval for remount checks")
	headless := flag.Bool("headless", false, "run Chrome headless")
	flag.Parse()

	if *url == "" {
		fmt.Fprintln(os.Stderr, "usage: livemount -url https://mail.example.com")
		os.Exit(1)
	}

	log := logging.NewDefault()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Error("loading config", zap.Error(err))
		os.Exit(1)
	}

	kv, err := kvstore.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		log.Error("opening storage", zap.Error(err))
		os.Exit(1)
	}
	defer kv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	adapter := store.New(kv, log)
	records := adapter.Load(ctx)
	markup := panel.HTML(panel.Build(records))

	if err := run(ctx, log, *url, markup, *interval, *headless); err != nil && ctx.Err() == nil {
		log.Error("livemount failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.Logger, url, markup string, interval time.Duration, headless bool) error {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.WindowSize(1440, 900),
	}
	if headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating: %w", err)
	}

	script := mountScript(markup)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-browserCtx.Done():
			return browserCtx.Err()
		case <-ticker.C:
		}

		var mounted bool
		if err := chromedp.Run(browserCtx, chromedp.Evaluate(script, &mounted)); err != nil {
			// Page mid-navigation; try again on the next tick.
			continue
		}
		if !mounted {
			log.Info("anchor not found, retrying")
		}
	}
}

// mountScript returns a self-contained expression that inserts the panel
// when it is missing. The serialized panel is embedded as a JSON string
// literal so no escaping is left to string concatenation.
func mountScript(markup string) string {
	encoded, _ := json.Marshal(markup)
	return fmt.Sprintf(`(function() {
	if (document.getElementById(%q)) {
		return true;
	}
	var anchor = document.querySelector('[role="navigation"]')
		|| document.querySelector('nav')
		|| document.querySelector('aside');
	if (!anchor) {
		return false;
	}
	anchor.insertAdjacentHTML('beforeend', %s);
	return true;
})()`, panel.RootID, string(encoded))
}
