package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/expand"
	"marrow/internal/lexer"
	"marrow/internal/parser"
	"marrow/internal/source"
)

// ExpandDirResult is the per-file outcome of ExpandDir.
type ExpandDirResult struct {
	Path      string
	FileID    source.FileID
	Decls     []*ast.Declaration
	Rendered  []string
	Bag       *diag.Bag
	FromCache bool
}

// ListFiles returns every .mw file under dir, sorted for deterministic
// processing order.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".mw") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ExpandDir expands every .mw file under dir in parallel. Results come back
// in ListFiles order regardless of completion order. Files that fail to
// load report an I/O diagnostic instead of aborting the whole run.
func ExpandDir(ctx context.Context, dir string, opts Options) (*source.FileSet, []ExpandDirResult, error) {
	defer func() {
		if opts.Events != nil {
			close(opts.Events)
		}
	}()

	files, err := ListFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	// Loading happens up front: FileSet mutation is not safe under the
	// worker pool, reads of distinct files are.
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		emit(opts.Events, path, StageParse, StatusQueued)
		fileID, err := fileSet.Load(path)
		if err != nil {
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = fileID
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]ExpandDirResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			bag := diag.NewBag(opts.MaxDiagnostics)
			if loadErr, failed := loadErrors[path]; failed {
				bag.Add(diag.NewError(diag.UnknownCode, source.Span{},
					"failed to load file: "+loadErr.Error()))
				results[i] = ExpandDirResult{Path: path, Bag: bag}
				emit(opts.Events, path, StageParse, StatusError)
				return nil
			}

			results[i] = expandOne(fileSet, path, fileIDs[path], opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

// expandOne runs the per-file pipeline inside a worker: cache probe, parse,
// cfg filter, expansion, render, cache store.
func expandOne(fileSet *source.FileSet, path string, fileID source.FileID, opts Options) ExpandDirResult {
	file := fileSet.Get(fileID)
	bag := diag.NewBag(opts.MaxDiagnostics)

	if payload, ok := cacheProbe(opts.Cache, file); ok {
		emit(opts.Events, path, StageExpand, StatusCached)
		return ExpandDirResult{
			Path:      path,
			FileID:    fileID,
			Rendered:  payload.Rendered,
			Bag:       bag,
			FromCache: true,
		}
	}

	emit(opts.Events, path, StageParse, StatusWorking)
	rep := diag.BagReporter{Bag: bag}
	lx := lexer.New(file, lexer.Options{Reporter: rep})
	decls := parser.FromLexer(lx, rep).ParseFile()
	decls = expand.FilterCfg(decls, opts.enabled())

	emit(opts.Events, path, StageExpand, StatusWorking)
	inv := opts.invoker()
	var out []*ast.Declaration
	for _, d := range decls {
		x := expand.New(inv, expand.NewBudget(opts.MaxDepth))
		produced, err := x.Expand(d)
		if err != nil {
			reportExpandError(bag, err)
			continue
		}
		out = append(out, produced...)
	}
	for _, d := range out {
		if !d.ExpansionComplete() {
			bag.Add(diag.NewError(diag.ExpUnexpanded, d.Span,
				"declaration still carries macro annotations after expansion"))
		}
	}

	rendered, err := Render(out)
	if err != nil {
		reportExpandError(bag, err)
	}

	if !bag.HasErrors() {
		cacheStore(opts.Cache, file, path, rendered)
	}

	status := StatusDone
	if bag.HasErrors() {
		status = StatusError
	}
	emit(opts.Events, path, StageExpand, status)

	return ExpandDirResult{
		Path:     path,
		FileID:   fileID,
		Decls:    out,
		Rendered: rendered,
		Bag:      bag,
	}
}

func cacheProbe(c *Cache, file *source.File) (*Payload, bool) {
	if c == nil {
		return nil, false
	}
	var payload Payload
	ok, err := c.Get(file.Hash, &payload)
	if err != nil || !ok {
		return nil, false
	}
	return &payload, true
}

func cacheStore(c *Cache, file *source.File, path string, rendered []string) {
	if c == nil {
		return
	}
	// Cache failures are invisible: the expansion result is already in hand.
	_ = c.Put(file.Hash, &Payload{
		Schema:   cacheSchemaVersion,
		Path:     path,
		Rendered: rendered,
	})
}
