package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lexandro/notebrowser-mcp/config"
	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/ignore"
	"github.com/lexandro/notebrowser-mcp/mutate"
	"github.com/lexandro/notebrowser-mcp/search"
	"github.com/lexandro/notebrowser-mcp/server"
	"github.com/lexandro/notebrowser-mcp/tags"
	"github.com/lexandro/notebrowser-mcp/tools"
	"github.com/lexandro/notebrowser-mcp/watcher"
	"github.com/lexandro/notebrowser-mcp/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// app owns every long-lived component and keeps them pointed at the open
// workspace.
type app struct {
	ctx       context.Context
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time

	provider *fsprovider.AferoProvider
	session  *workspace.Session
	matcher  *ignore.Matcher
	engine   *search.Engine
	store    *tags.Store
	coord    *mutate.Coordinator
	latest   *search.Latest

	mu      sync.Mutex
	watcher *watcher.Watcher
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) *app {
	provider := fsprovider.NewOSProvider()
	session := workspace.NewSession(provider, logger)
	matcher := ignore.NewMatcher(ignore.MatcherOptions{
		Fs:             provider.Fs(),
		CustomPatterns: cfg.Search.Exclude,
	})

	var filter search.Filter
	if cfg.Search.RespectIgnore {
		filter = matcher
	}
	engine := search.NewEngine(provider, filter, logger)
	engine.MaxResults = cfg.Search.MaxResults

	a := &app{
		ctx:       ctx,
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
		provider:  provider,
		session:   session,
		matcher:   matcher,
		engine:    engine,
		store:     tags.NewStore(provider, "", logger),
		coord:     mutate.NewCoordinator(provider, session, logger, mutate.Options{SettleTimeout: cfg.Move.SettleTimeout()}),
		latest:    &search.Latest{},
	}
	session.OnRootChange(a.onRootChange)
	return a
}

// onRootChange rebinds the root-scoped components. It runs for notes_open,
// for a rename of the root itself and when the workspace is closed. Tag keys
// are absolute paths, so when the old root no longer exists (the root was
// renamed) the assignments are rebased onto the new root.
func (a *app) onRootChange(oldRoot, newRoot string) {
	a.logger.Info("workspace root changed", "from", oldRoot, "to", newRoot)
	a.store.Rebind(newRoot)
	if oldRoot != "" && newRoot != "" && !a.provider.Exists(a.ctx, oldRoot) {
		if _, err := a.store.RebaseKeys(a.ctx, oldRoot, newRoot); err != nil {
			a.logger.Warn("failed to rebase tag assignments", "from", oldRoot, "to", newRoot, "error", err)
		}
	}
	if newRoot != "" {
		a.matcher.Reload(newRoot)
	}
	a.latest.Reset()
	a.restartWatcher(newRoot)
}

func (a *app) restartWatcher(root string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
	if root == "" || !a.cfg.Watch.Enabled {
		return
	}

	var checker watcher.IgnoreChecker
	if a.cfg.Search.RespectIgnore {
		checker = a.matcher
	}
	w, err := watcher.NewWatcher(root, watcher.Options{
		Ignore:       checker,
		Debounce:     a.cfg.Watch.Debounce(),
		AlwaysReport: []string{a.store.SidecarPath()},
	}, a.logger)
	if err != nil {
		a.logger.Warn("failed to start file watcher, continuing without live updates", "root", root, "error", err)
		return
	}
	go w.Start()
	go handleWatcherEvents(a.ctx, w, &eventSink{
		session: a.session,
		matcher: a.matcher,
		store:   a.store,
		logger:  a.logger,
	})
	a.watcher = w
}

// open makes root the workspace.
func (a *app) open(ctx context.Context, root string) error {
	_, err := a.session.Open(ctx, root)
	return err
}

// refresh is the notes_refresh operation.
func (a *app) refresh(ctx context.Context) (int, int, time.Duration, error) {
	ws, err := a.session.Current()
	if err != nil {
		return 0, 0, 0, err
	}
	a.matcher.Reload("")
	result := performSyncVerification(ctx, ws, a.logger)
	return result.Directories, result.Changed(), result.Duration, nil
}

// watchTags logs tag changes, including ones made by other processes.
func (a *app) watchTags() {
	sub := a.store.Bus().Subscribe()
	defer sub.Close()
	for {
		select {
		case <-a.ctx.Done():
			return
		case _, ok := <-sub.C:
			if !ok {
				return
			}
			if a.store.Root() == "" {
				continue
			}
			a.logger.Debug("tags changed", "tags", len(a.store.ListTags(a.ctx)))
		}
	}
}

func (a *app) handlers() server.Handlers {
	return server.Handlers{
		Tree:    &tools.TreeHandler{Session: a.session, Logger: a.logger},
		Mutate:  &tools.MutationHandler{Coordinator: a.coord, Session: a.session, Logger: a.logger},
		Search:  &tools.SearchHandler{Engine: a.engine, Session: a.session, Latest: a.latest, Logger: a.logger},
		Files:   &tools.FilesHandler{Engine: a.engine, Session: a.session, Logger: a.logger},
		Read:    &tools.ReadHandler{Session: a.session, Logger: a.logger},
		Status:  &tools.StatusHandler{Session: a.session, Tags: a.store, StartTime: a.startTime, Logger: a.logger},
		Refresh: &tools.RefreshHandler{DoRefresh: a.refresh, Logger: a.logger},
		Tags:    &tools.TagsHandler{Store: a.store, Session: a.session, Logger: a.logger},
	}
}

// serve runs the MCP server on stdio until the client disconnects or ctx ends.
func (a *app) serve() error {
	if interval := a.cfg.Sync.Interval(); interval > 0 {
		go runPeriodicSync(a.ctx, interval, a.session, a.logger)
	}
	go a.watchTags()

	mcpServer := server.Setup(a.handlers())
	a.logger.Info("MCP server starting on stdio")
	return mcpServer.Run(a.ctx, &mcp.StdioTransport{})
}

// close stops the watcher and the tag bus.
func (a *app) close() {
	a.session.Close()
	a.store.Bus().Close()
}
