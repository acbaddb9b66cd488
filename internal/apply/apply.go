// Package apply writes accepted field proposals back into model sources.
//
// This is the writer collaborator sitting outside the analysis core: the
// core hands it well-formed, entity-scoped, deduplicated proposals, and the
// writer owns insertion points and formatting. Writes are serialized per
// target document so concurrent appliers cannot corrupt the same file.
package apply

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"mvx/internal/registry"
	"mvx/internal/synth"
)

// Result summarizes one apply run.
type Result struct {
	// Applied lists the proposals written, in input order.
	Applied []synth.SynthesizedField `yaml:"applied,omitempty" json:"applied,omitempty"`

	// Skipped lists proposals that could not be written, with reasons.
	Skipped []SkippedProposal `yaml:"skipped,omitempty" json:"skipped,omitempty"`
}

// SkippedProposal records one proposal the writer declined.
type SkippedProposal struct {
	Proposal synth.SynthesizedField `yaml:"proposal" json:"proposal"`
	Reason   string                 `yaml:"reason" json:"reason"`
}

// Applier inserts field proposals into model-source documents.
type Applier struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an applier.
func New() *Applier {
	return &Applier{locks: make(map[string]*sync.Mutex)}
}

// fileLock returns the per-document lock, creating it on first use.
func (a *Applier) fileLock(path string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock := a.locks[path]
	if lock == nil {
		lock = &sync.Mutex{}
		a.locks[path] = lock
	}
	return lock
}

// Apply writes the proposals into the source documents of their entities.
// The entity registry is consulted read-only to locate target documents.
//
// Proposals needing human confirmation are skipped, not guessed at. A
// proposal whose entity has no known source document is skipped with a
// reason rather than failing the run.
func (a *Applier) Apply(entities *registry.EntityRegistry, proposals []synth.SynthesizedField) (*Result, error) {
	result := &Result{}

	for _, proposal := range proposals {
		if proposal.NeedsConfirmation {
			result.Skipped = append(result.Skipped, SkippedProposal{
				Proposal: proposal,
				Reason:   "proposal requires human confirmation",
			})
			continue
		}

		ent := entities.Get(proposal.Entity)
		if ent == nil || len(ent.Files) == 0 {
			result.Skipped = append(result.Skipped, SkippedProposal{
				Proposal: proposal,
				Reason:   "no source document known for entity",
			})
			continue
		}

		target := ent.Files[0]
		if err := a.applyToFile(target, proposal); err != nil {
			result.Skipped = append(result.Skipped, SkippedProposal{
				Proposal: proposal,
				Reason:   err.Error(),
			})
			continue
		}
		result.Applied = append(result.Applied, proposal)
	}

	return result, nil
}

// applyToFile inserts one declaration (and compute skeleton, if any) into
// the target document, holding that document's lock for the duration.
func (a *Applier) applyToFile(path string, proposal synth.SynthesizedField) error {
	lock := a.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read target document: %w", err)
	}

	updated, err := insertDeclaration(string(data), proposal)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat target document: %w", err)
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write target document: %w", err)
	}
	return nil
}

// insertDeclaration places the proposal's declaration after the anchor line
// of the declaring class: the `_name`/`_inherit` assignment naming the
// entity. The declaration inherits the anchor's indentation.
func insertDeclaration(source string, proposal synth.SynthesizedField) (string, error) {
	anchor := regexp.MustCompile(
		`^(\s*)_(?:name|inherit)\s*=.*['"]` + regexp.QuoteMeta(proposal.Entity) + `['"]`)

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		m := anchor.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		indent := m[1]

		insert := []string{indent + proposal.Declaration}
		if proposal.MethodSkeleton != "" {
			insert = append(insert, "")
			for _, sl := range strings.Split(strings.TrimRight(proposal.MethodSkeleton, "\n"), "\n") {
				insert = append(insert, indent+sl)
			}
		}

		out := make([]string, 0, len(lines)+len(insert))
		out = append(out, lines[:i+1]...)
		out = append(out, insert...)
		out = append(out, lines[i+1:]...)
		return strings.Join(out, "\n"), nil
	}

	return "", fmt.Errorf("no declaration of entity %s found in target document", proposal.Entity)
}
