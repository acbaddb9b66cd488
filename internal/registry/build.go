package registry

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"mvx/internal/extract"
	"mvx/internal/parser"
	"mvx/internal/views"
)

// BuildEntityRegistry scans the given roots for model-source documents and
// builds the entity registry.
//
// Documents are independent units of work and are parsed by a bounded worker
// pool. Each worker accumulates into a private partial registry; partials are
// merged by a single combining step in path order, so the result is
// deterministic regardless of scheduling. A document that fails to parse
// aborts only its own contribution, recorded in the registry's Errors.
func BuildEntityRegistry(ctx context.Context, roots []string, excludes []string) (*EntityRegistry, error) {
	files, err := discoverFiles(roots, ".py", excludes)
	if err != nil {
		return nil, err
	}

	partials, err := scanParallel(ctx, files, func(ctx context.Context, worker *entityWorker, path string) {
		worker.scan(ctx, path)
	}, func() *entityWorker {
		return &entityWorker{
			parser:   parser.New(),
			registry: NewEntityRegistry(),
			docs:     make(map[string][]extract.ModelDocument),
		}
	})
	if err != nil {
		return nil, err
	}

	// Combine per-file results in path order for a deterministic registry.
	merged := NewEntityRegistry()
	byFile := make(map[string][]extract.ModelDocument)
	for _, w := range partials {
		w.parser.Close()
		for file, docs := range w.docs {
			byFile[file] = docs
		}
		merged.Errors = append(merged.Errors, w.registry.Errors...)
	}
	for _, file := range sortedKeys(byFile) {
		for _, doc := range byFile[file] {
			merged.Add(doc)
		}
	}
	sort.Slice(merged.Errors, func(i, j int) bool {
		return merged.Errors[i].File < merged.Errors[j].File
	})
	return merged, nil
}

// entityWorker holds one worker's parser and partial results.
type entityWorker struct {
	parser   *parser.Parser
	registry *EntityRegistry
	docs     map[string][]extract.ModelDocument
}

func (w *entityWorker) scan(ctx context.Context, path string) {
	result, err := w.parser.ParseFile(ctx, path)
	if err != nil {
		w.registry.Errors = append(w.registry.Errors, DocumentError{File: path, Message: err.Error()})
		return
	}
	defer result.Close()

	docs := extract.NewModelExtractor(result).ExtractModels()
	if len(docs) > 0 {
		w.docs[path] = docs
	}
}

// BuildViewRegistry scans the given roots for view-source documents and
// builds the view registry. Same worker-pool and deterministic-merge scheme
// as the entity scan; the two scans share no state and may run in parallel.
func BuildViewRegistry(ctx context.Context, roots []string, excludes []string) (*ViewRegistry, error) {
	files, err := discoverFiles(roots, ".xml", excludes)
	if err != nil {
		return nil, err
	}

	partials, err := scanParallel(ctx, files, func(ctx context.Context, worker *viewWorker, path string) {
		worker.scan(path)
	}, func() *viewWorker {
		return &viewWorker{defs: make(map[string][]views.ViewDefinition)}
	})
	if err != nil {
		return nil, err
	}

	merged := NewViewRegistry()
	byFile := make(map[string][]views.ViewDefinition)
	for _, w := range partials {
		for file, defs := range w.defs {
			byFile[file] = defs
		}
		merged.Errors = append(merged.Errors, w.errors...)
	}
	for _, file := range sortedKeys(byFile) {
		for _, def := range byFile[file] {
			merged.Add(def)
		}
	}
	sort.Slice(merged.Errors, func(i, j int) bool {
		return merged.Errors[i].File < merged.Errors[j].File
	})
	return merged, nil
}

// viewWorker holds one worker's partial view results.
type viewWorker struct {
	defs   map[string][]views.ViewDefinition
	errors []DocumentError
}

func (w *viewWorker) scan(path string) {
	defs, err := views.ParseFile(path)
	if err != nil {
		w.errors = append(w.errors, DocumentError{File: path, Message: err.Error()})
		return
	}
	if len(defs) > 0 {
		w.defs[path] = defs
	}
}

// scanParallel fans paths out to a bounded worker pool. Each worker owns a
// private partial built by newWorker; the caller merges the returned
// partials. A single document's scan is atomic; cancellation is observed
// between documents.
func scanParallel[W any](ctx context.Context, paths []string, scan func(context.Context, W, string), newWorker func() W) ([]W, error) {
	workers := runtime.NumCPU()
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}

	work := make(chan string)
	partials := make([]W, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		partials[i] = newWorker()
		wg.Add(1)
		go func(w W) {
			defer wg.Done()
			for path := range work {
				scan(ctx, w, path)
			}
		}(partials[i])
	}

	var cancelled error
feed:
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break feed
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case work <- path:
		}
	}
	close(work)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return partials, nil
}

// discoverFiles walks the roots collecting files with the given extension,
// skipping excluded paths.
func discoverFiles(roots []string, ext string, excludes []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if strings.HasSuffix(root, ext) && !seen[root] {
				seen[root] = true
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				// Unreadable entries are skipped, not fatal.
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			if d.IsDir() {
				if path != root && Excluded(rel, d.Name(), excludes) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ext) || Excluded(rel, d.Name(), excludes) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
