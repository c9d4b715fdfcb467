package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/eversync/eversync/internal/convert"
	"github.com/eversync/eversync/internal/notesdk"
	"github.com/eversync/eversync/internal/utils"
)

var (
	ErrNoNotebook = errors.New("notebook name is required")
)

// RunParams selects what a single run syncs
type RunParams struct {
	Root     string
	Notebook string
	Force    bool
	// RunID tags the log lines of the run. Generated when empty.
	RunID string
}

// Report describes the outcome of a run
type Report struct {
	RunID    string        `json:"runId"`
	Scope    Scope         `json:"scope"`
	Skipped  bool          `json:"skipped"`
	LastSync time.Time     `json:"lastSync"`
	Files    int           `json:"files"`
	Creates  int           `json:"creates"`
	Updates  int           `json:"updates"`
	Deletes  int           `json:"deletes"`
	Tally    Tally         `json:"tally"`
	Duration time.Duration `json:"duration"`
}

type EngineOption func(*SyncEngine)

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *SyncEngine) { e.logger = logger }
}

func WithWorkers(n int) EngineOption {
	return func(e *SyncEngine) { e.workers = n }
}

// WithIgnoredDirs replaces the default ignored directory list
func WithIgnoredDirs(dirs ...string) EngineOption {
	return func(e *SyncEngine) { e.ignoredDirs = dirs }
}

func WithIgnoreFile(name string) EngineOption {
	return func(e *SyncEngine) { e.ignoreFile = name }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *SyncEngine) { e.now = now }
}

// SyncEngine runs one-shot syncs of a local directory into a notebook
type SyncEngine struct {
	store       NoteStore
	converter   *convert.Registry
	state       *StateStore
	logger      *slog.Logger
	workers     int
	ignoredDirs []string
	ignoreFile  string
	now         func() time.Time
}

func NewEngine(store NoteStore, converter *convert.Registry, state *StateStore, opts ...EngineOption) *SyncEngine {
	e := &SyncEngine{
		store:       store,
		converter:   converter,
		state:       state,
		logger:      slog.Default(),
		workers:     DefaultWorkers,
		ignoredDirs: DefaultIgnoredDirs,
		ignoreFile:  DefaultIgnoreFile,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.converter == nil {
		e.converter = convert.NewDefaultRegistry()
	}
	return e
}

// Run syncs params.Root into the notebook params.Notebook. The last sync time
// of the scope is only recorded when every mutation succeeded.
func (e *SyncEngine) Run(ctx context.Context, params RunParams) (*Report, error) {
	runStart := e.now()

	if params.Notebook == "" {
		return nil, ErrNoNotebook
	}

	root, err := utils.ResolvePath(params.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	if params.RunID == "" {
		params.RunID = uuid.NewString()
	}

	scope := Scope{Root: root, Notebook: params.Notebook}
	logger := e.logger.With("run", params.RunID)
	report := &Report{RunID: params.RunID, Scope: scope}

	logger.Info("sync start", "root", root, "notebook", params.Notebook, "force", params.Force)

	files, err := Scan(root, ScanOptions{
		Extensions:  e.converter.Extensions(),
		IgnoredDirs: e.ignoredDirs,
		IgnoreFile:  e.ignoreFile,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	report.Files = len(files)

	lastSync, hasLast := e.state.GetLastSyncTime(scope)
	report.LastSync = lastSync

	if !shouldSync(lastSync, hasLast, files, params.Force) {
		report.Skipped = true
		report.Duration = time.Since(runStart)
		logger.Info("sync skipped, no changes since last sync", "lastSync", humanize.Time(lastSync), "files", len(files))
		return report, nil
	}

	notebook, err := e.resolveNotebook(ctx, logger, params.Notebook)
	if err != nil {
		return nil, err
	}

	notes, err := e.store.FindNotes(ctx, &notesdk.NoteFilter{NotebookGUID: notebook.GUID})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	logger.Debug("sync state", "files", len(files), "notes", len(notes))

	plan := Reconcile(files, notes, notebook.Name, logger)
	report.Creates = len(plan.Creates)
	report.Updates = len(plan.Updates)
	report.Deletes = len(plan.Deletes)

	if !plan.HasChanges() {
		logger.Info("sync nothing to do", "unchanged", plan.Unchanged)
	} else {
		executor := &Executor{
			Store:     e.store,
			Converter: e.converter,
			Root:      root,
			Workers:   e.workers,
			Logger:    logger,
			Now:       e.now,
		}

		tally, err := executor.Apply(ctx, plan, notebook)
		if tally != nil {
			report.Tally = *tally
		}
		if err != nil {
			report.Duration = time.Since(runStart)
			logger.Error("sync aborted", "created", report.Tally.Created, "updated", report.Tally.Updated, "removed", report.Tally.Removed, "error", err)
			return report, err
		}
	}

	if err := e.state.SetLastSyncTime(scope, runStart); err != nil {
		return report, fmt.Errorf("record sync time: %w", err)
	}

	report.Duration = time.Since(runStart)
	logger.Info("sync complete",
		"created", report.Tally.Created,
		"updated", report.Tally.Updated,
		"removed", report.Tally.Removed,
		"took", report.Duration,
	)

	return report, nil
}

// resolveNotebook finds the notebook with the exact name or creates it
func (e *SyncEngine) resolveNotebook(ctx context.Context, logger *slog.Logger, name string) (*notesdk.Notebook, error) {
	notebooks, err := e.store.ListNotebooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}

	for _, nb := range notebooks {
		if nb.Name == name {
			logger.Debug("sync notebook found", "notebook", name, "guid", nb.GUID)
			return nb, nil
		}
	}

	// notebook names are unique regardless of case
	for _, nb := range notebooks {
		if strings.EqualFold(nb.Name, name) {
			logger.Info("sync notebook found with different case", "notebook", name, "existing", nb.Name, "guid", nb.GUID)
			return nb, nil
		}
	}

	nb, err := e.store.CreateNotebook(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create notebook %q: %w", name, err)
	}
	logger.Info("sync notebook created", "notebook", name, "guid", nb.GUID)
	return nb, nil
}
