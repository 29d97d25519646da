// Mailpanel keeps a user's named search shortcuts alive inside a hostile,
// self-rewriting webmail page. This driver runs the full pipeline against a
// simulated host document: it mounts the panel, churns the host DOM the way
// an SPA re-render would, exercises the command dispatcher, and prints the
// surviving panel.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"mailpanel/command"
	"mailpanel/config"
	"mailpanel/hostdoc"
	"mailpanel/kvstore"
	"mailpanel/logging"
	"mailpanel/mount"
	"mailpanel/nav"
	"mailpanel/panel"
	"mailpanel/shortcut"
	"mailpanel/store"
)

// hostPage is a minimal stand-in for the webmail SPA: a left navigation
// rail with folder and label sections, and a thread list the host rebuilds
// constantly.
const hostPage = `<!DOCTYPE html>
<html>
<head><title>Webmail</title></head>
<body>
  <header class="topbar">Webmail</header>
  <div role="navigation" class="left-rail">
    <div class="section"><h2>Folders</h2>
      <ul><li>Inbox</li><li>Sent</li><li>Trash</li></ul>
    </div>
    <div class="section"><h2>Labels</h2>
      <ul><li>travel</li><li>receipts</li></ul>
    </div>
  </div>
  <main><div class="threads"></div></main>
</body>
</html>`

func main() {
	initConfig := flag.Bool("init-config", false, "print a starter config file and exit")
	churns := flag.Int("churns", 5, "number of simulated host re-renders")
	flag.Parse()

	if *initConfig {
		fmt.Print(config.DefaultTOML())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log = logging.NewDefault()
	}
	defer log.Sync()

	kv, err := kvstore.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		log.Error("opening storage", zap.Error(err))
		os.Exit(1)
	}
	defer kv.Close()

	doc, err := hostdoc.Parse(hostPage)
	if err != nil {
		log.Error("parsing host page", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := store.New(kv, log)
	controller := mount.New(doc, adapter, log, mount.Options{
		Debounce:    time.Duration(cfg.Mount.DebounceMs) * time.Millisecond,
		MaxAttempts: cfg.Mount.MaxAttempts,
		Backoff:     time.Duration(cfg.Mount.BackoffMs) * time.Millisecond,
	})
	navigator := nav.New(doc, time.Duration(cfg.Navigation.BounceDelayMs)*time.Millisecond)
	dispatcher := command.New(adapter, navigator, controller, log)

	if !controller.Start(ctx) {
		log.Error("panel never mounted")
		os.Exit(1)
	}
	fmt.Println("panel mounted with default shortcuts")

	runScript(ctx, dispatcher)
	survive(doc, controller, *churns,
		time.Duration(cfg.Mount.DebounceMs)*time.Millisecond)

	report(ctx, doc, dispatcher)
}

// runScript pushes a representative command sequence through the
// dispatcher: a hand-typed add, a pasted import, a hostile import, and two
// activations of the same shortcut.
func runScript(ctx context.Context, d *command.Dispatcher) {
	steps := []struct {
		label string
		cmd   command.Command
	}{
		{"add 'From boss'", command.Command{
			Kind:   command.Add,
			Record: shortcut.Record{Name: "From boss", Query: "from:boss@example.com is:unread"},
		}},
		{"import pasted list", command.Command{
			Kind:    command.Import,
			Payload: `[{"name":"Work","q":"from:boss@example.com"},{"name":"Big mail","q":"larger:5M"}]`,
		}},
		{"import hostile list", command.Command{
			Kind:    command.Import,
			Payload: `[{"name":"<script>alert(1)</script>","q":"test"}]`,
		}},
		{"navigate to Work", command.Command{Kind: command.Navigate, Index: 0}},
		{"navigate to Work again", command.Command{Kind: command.Navigate, Index: 0}},
	}

	for _, step := range steps {
		if _, err := d.Dispatch(ctx, step.cmd); err != nil {
			fmt.Printf("%-26s -> %v\n", step.label, err)
		} else {
			fmt.Printf("%-26s -> ok\n", step.label)
		}
	}
}

// survive rips the panel out and rebuilds the navigation rail repeatedly,
// then waits out the quiescence window and reports the panel's state.
func survive(doc *hostdoc.Document, c *mount.Controller, churns int, debounce time.Duration) {
	rail := c.FindAnchor()
	if rail == nil {
		return
	}

	for i := 0; i < churns; i++ {
		doc.Detach(panel.RootID)
		doc.Rebuild(rail)
		time.Sleep(debounce / 4)
	}

	// Let the debounced remount fire.
	time.Sleep(3 * debounce)

	if c.IsMounted() {
		fmt.Printf("survived %d host re-renders (%d mounts total)\n", churns, c.Mounts())
	} else {
		fmt.Println("panel lost after churn")
	}
}

func report(ctx context.Context, doc *hostdoc.Document, d *command.Dispatcher) {
	exported, err := d.Dispatch(ctx, command.Command{Kind: command.Export})
	if err == nil {
		fmt.Println("exported shortcuts:")
		fmt.Println(exported)
	}

	fmt.Println("fragment history:", doc.FragmentLog())

	if root := doc.ElementByID(panel.RootID); root != nil {
		fmt.Println("mounted panel:")
		fmt.Println(panel.HTML(root))
	}
}
