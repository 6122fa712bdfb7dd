package docs

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AbstractUmbra/doccache"
	"golang.org/x/sync/errgroup"
)

// Fixed user-visible failure strings. Raw errors never cross the
// service boundary.
const (
	MsgNetworkError  = "Unable to parse the requested symbol due to a network error."
	MsgUnexpectedErr = "Unable to parse the requested symbol due to an error."
	MsgUnableToParse = "Unable to parse the requested symbol."
)

// Delays before retrying an unreachable inventory.
const (
	firstRetryDelay    = 2 * time.Minute
	repeatedRetryDelay = 5 * time.Minute
)

// Result is a resolved symbol lookup.
type Result struct {
	// Name the symbol was found under after disambiguation and
	// first-word fallback.
	Name string

	// URL of the symbol, fragment included.
	URL string

	// Markdown is the rendered documentation, or one of the fixed
	// failure strings.
	Markdown string

	// SimilarNames lists disambiguated names derived from Name, for
	// "did you mean" hints.
	SimilarNames []string
}

// Service is the doc cache façade: it resolves symbol names against
// the registry, serves cached markdown, and delegates misses to the
// batch fetch queue, coordinating lookups with full refreshes.
type Service struct {
	inventories doccache.InventoryService
	cache       doccache.SymbolCache
	stale       doccache.StaleCounter
	packages    doccache.PackageService
	logger      *slog.Logger

	registry  *Registry
	queue     *Queue
	scheduler *Scheduler

	// state guards the registry and the refresh gate fields below.
	// cond is signalled whenever refreshing or readers changes.
	state      sync.Mutex
	cond       *sync.Cond
	refreshing bool
	readers    int

	// generation increments every time the registry is rebuilt. An
	// inventory load that started under an older generation must not
	// touch the rebuilt registry.
	generation uint64

	// admin serializes AddPackage/RemovePackage/Refresh/ClearCache,
	// independent of the lookup read-indicator.
	admin sync.Mutex

	// Retry delays for unreachable inventories. Overridable in tests.
	FirstRetryDelay    time.Duration
	RepeatedRetryDelay time.Duration
}

// NewService wires a Service from its collaborators. priorityPackages
// win bare symbol names in cross-package conflicts.
func NewService(
	inventories doccache.InventoryService,
	fetcher doccache.Fetcher,
	extractor doccache.SymbolExtractor,
	cache doccache.SymbolCache,
	stale doccache.StaleCounter,
	packages doccache.PackageService,
	notifier doccache.Notifier,
	logger *slog.Logger,
	priorityPackages ...string,
) *Service {
	s := &Service{
		inventories: inventories,
		cache:       cache,
		stale:       stale,
		packages:    packages,
		logger:      logger,
		registry:    NewRegistry(priorityPackages...),
		scheduler:   NewScheduler(logger),

		FirstRetryDelay:    firstRetryDelay,
		RepeatedRetryDelay: repeatedRetryDelay,
	}
	s.cond = sync.NewCond(&s.state)
	s.queue = NewQueue(fetcher, extractor, cache, NewStaleNotifier(stale, notifier, logger), logger)
	return s
}

// beginRead waits out any refresh in progress and then marks a lookup
// as in flight, blocking a new refresh from starting until endRead.
func (s *Service) beginRead() {
	s.state.Lock()
	for s.refreshing {
		s.cond.Wait()
	}
	s.readers++
	s.state.Unlock()
}

func (s *Service) endRead() {
	s.state.Lock()
	s.readers--
	if s.readers == 0 {
		s.cond.Broadcast()
	}
	s.state.Unlock()
}

// beginRefresh closes the refresh gate and waits for in-flight lookups
// to leave the critical section.
func (s *Service) beginRefresh() {
	s.state.Lock()
	for s.refreshing {
		s.cond.Wait()
	}
	s.refreshing = true
	for s.readers > 0 {
		s.cond.Wait()
	}
	s.state.Unlock()
}

func (s *Service) endRefresh() {
	s.state.Lock()
	s.refreshing = false
	s.cond.Broadcast()
	s.state.Unlock()
}

// Resolve returns the rendered documentation for a symbol name.
//
// A lookup arriving while a refresh is in progress waits for the
// refresh to finish so it resolves against the fully rebuilt registry.
// Returns ENOTFOUND if the name is unknown; fetch and parse failures
// are reported through the fixed message strings, never as errors.
func (s *Service) Resolve(ctx context.Context, name string) (*Result, error) {
	s.beginRead()
	defer s.endRead()

	s.state.Lock()
	item, resolvedName, ok := s.registry.Lookup(name)
	similar := s.registry.Renamed(resolvedName)
	s.state.Unlock()
	if !ok {
		return nil, doccache.Errorf(doccache.ENOTFOUND, "symbol %q not found", name)
	}

	result := &Result{
		Name:         resolvedName,
		URL:          item.URL(),
		SimilarNames: similar,
	}
	if item.SymbolID != "" {
		result.URL += "#" + item.SymbolID
	}

	markdown, err := s.cache.Get(ctx, item)
	switch {
	case err == nil:
		result.Markdown = markdown
		return result, nil
	case doccache.ErrorCode(err) != doccache.ENOTFOUND:
		return nil, err
	}

	s.logger.Debug("symbol cache miss", "symbol", resolvedName)

	markdown, err = s.queue.GetMarkdown(ctx, item)
	switch {
	case err != nil && doccache.ErrorCode(err) == doccache.EUNAVAILABLE:
		s.logger.Warn("network error while requesting symbol parse",
			"symbol", resolvedName, "err", err)
		result.Markdown = MsgNetworkError
	case err != nil:
		s.logger.Error("unexpected error while requesting symbol parse",
			"symbol", resolvedName, "err", err)
		result.Markdown = MsgUnexpectedErr
	case markdown == "":
		result.Markdown = MsgUnableToParse
	default:
		result.Markdown = markdown
	}
	return result, nil
}

// loadPackage fetches a package's inventory and registers its symbols,
// scheduling a retry when the inventory is temporarily unreachable. A
// broken inventory header aborts permanently: the request went
// through, the content itself is invalid.
//
// gen is the registry generation the load belongs to. A retry timer
// cannot be cancelled once its function is running, so the whole retry
// chain carries the generation it started under and the result is
// dropped when a refresh has rebuilt the registry since.
func (s *Service) loadPackage(ctx context.Context, pkg *doccache.Package, gen uint64) {
	if s.staleGeneration(gen) {
		s.logger.Debug("dropping inventory load superseded by a refresh", "package", pkg.Name)
		return
	}

	inv, err := s.inventories.FetchInventory(ctx, pkg.InventoryURL)
	if err != nil {
		if doccache.ErrorCode(err) == doccache.EINVALID {
			s.logger.Warn("invalid inventory header", "package", pkg.Name, "url", pkg.InventoryURL, "err", err)
			return
		}

		delay := s.FirstRetryDelay
		if s.scheduler.Contains(pkg.Name) {
			delay = s.RepeatedRetryDelay
		}
		s.logger.Info("failed to fetch inventory, retrying later",
			"package", pkg.Name, "delay", delay, "err", err)
		s.scheduler.Schedule(pkg.Name, delay, func() {
			s.loadPackage(context.Background(), pkg, gen)
		})
		return
	}

	s.state.Lock()
	if gen != s.generation {
		s.state.Unlock()
		s.logger.Debug("dropping inventory load superseded by a refresh", "package", pkg.Name)
		return
	}
	s.registry.LoadInventory(pkg.Name, pkg.BaseURLOrDefault(), inv, s.queue.AddItem)
	s.state.Unlock()
	s.logger.Debug("fetched inventory", "package", pkg.Name, "symbols", inv.Count())
}

func (s *Service) staleGeneration(gen uint64) bool {
	s.state.Lock()
	defer s.state.Unlock()
	return gen != s.generation
}

// refresh rebuilds all in-memory state from the configured packages.
// Callers must not hold the admin lock's protected state themselves.
func (s *Service) refresh(ctx context.Context) error {
	s.beginRefresh()
	defer s.endRefresh()

	s.logger.Debug("refreshing documentation inventories")
	s.scheduler.CancelAll()

	if err := s.queue.Clear(ctx); err != nil {
		return err
	}
	s.state.Lock()
	s.registry.Clear()
	s.generation++
	gen := s.generation
	s.state.Unlock()

	pkgs, err := s.packages.FindPackages(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, pkg := range pkgs {
		g.Go(func() error {
			s.loadPackage(gctx, pkg, gen)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Debug("finished inventory refresh")
	return nil
}

// Load performs the initial inventory load. Call once at startup.
func (s *Service) Load(ctx context.Context) error {
	s.admin.Lock()
	defer s.admin.Unlock()
	return s.refresh(ctx)
}

// Refresh reloads every configured package and returns the names of
// packages that appeared and disappeared relative to the previous
// registry state.
func (s *Service) Refresh(ctx context.Context) (added, removed []string, err error) {
	s.admin.Lock()
	defer s.admin.Unlock()

	before := s.loadedPackages()
	if err := s.refresh(ctx); err != nil {
		return nil, nil, err
	}
	after := s.loadedPackages()

	for name := range after {
		if !before[name] {
			added = append(added, name)
		}
	}
	for name := range before {
		if !after[name] {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed, nil
}

func (s *Service) loadedPackages() map[string]bool {
	s.state.Lock()
	defer s.state.Unlock()
	out := make(map[string]bool)
	for name := range s.registry.BaseURLs() {
		out[name] = true
	}
	return out
}

// AddPackage registers a new documentation package, fetching its
// inventory immediately. The package must not already exist.
func (s *Service) AddPackage(ctx context.Context, name, inventoryURL, baseURL string) error {
	s.admin.Lock()
	defer s.admin.Unlock()

	pkg := &doccache.Package{Name: name, InventoryURL: inventoryURL, BaseURL: baseURL}
	if err := pkg.Validate(); err != nil {
		return err
	}

	// Fetch before persisting so a dead inventory URL is rejected
	// outright rather than registered and endlessly retried.
	inv, err := s.inventories.FetchInventory(ctx, inventoryURL)
	if err != nil {
		return err
	}

	if err := s.packages.CreatePackage(ctx, pkg); err != nil {
		return err
	}

	s.state.Lock()
	s.registry.LoadInventory(pkg.Name, pkg.BaseURLOrDefault(), inv, s.queue.AddItem)
	s.state.Unlock()
	s.logger.Info("added documentation package", "package", name, "inventory", inventoryURL)
	return nil
}

// RemovePackage deletes a configured package, rebuilds the registry,
// and clears the package's cache and stale-counter entries.
func (s *Service) RemovePackage(ctx context.Context, name string) error {
	s.admin.Lock()
	defer s.admin.Unlock()

	if err := s.packages.DeletePackage(ctx, name); err != nil {
		return err
	}
	if err := s.refresh(ctx); err != nil {
		return err
	}
	if _, err := s.cache.DeletePackage(ctx, name); err != nil {
		return err
	}
	if _, err := s.stale.DeletePackage(ctx, name); err != nil {
		return err
	}
	s.logger.Info("removed documentation package", "package", name)
	return nil
}

// ClearCache removes the cached pages for a package name, or for every
// package when name is "*". Reports whether anything was deleted.
func (s *Service) ClearCache(ctx context.Context, name string) (bool, error) {
	s.admin.Lock()
	defer s.admin.Unlock()

	deleted, err := s.cache.DeletePackage(ctx, name)
	if err != nil {
		return false, err
	}
	if deleted {
		if _, err := s.stale.DeletePackage(ctx, name); err != nil {
			return false, err
		}
	}
	return deleted, nil
}

// BaseURLs lists the loaded packages and their documentation roots.
func (s *Service) BaseURLs() map[string]string {
	s.state.Lock()
	defer s.state.Unlock()
	return s.registry.BaseURLs()
}

// Close cancels scheduled retries and waits for in-flight user
// requests to settle.
func (s *Service) Close(ctx context.Context) error {
	s.scheduler.CancelAll()
	return s.queue.Clear(ctx)
}
