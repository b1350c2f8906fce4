package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/fsaudit/internal/inspect"
	"github.com/temirov/fsaudit/internal/rules"
)

const directoryUnreadableTemplateConstant = "directory could not be enumerated: %s"

// PathInspector exposes the observation operations the traversal engine needs.
type PathInspector interface {
	Inspect(path string) inspect.Observation
	Canonicalize(path string) (string, error)
}

// Traverser walks rule targets depth-first, evaluating every entry at its
// literal path. A visited set of canonical paths guards the descend decision
// only: it breaks symlink cycles and suppresses re-entering subtrees reachable
// through multiple link paths, but never suppresses the evaluation of a node.
type Traverser struct {
	inspector PathInspector
}

// NewTraverser constructs a traverser backed by the provided inspector.
func NewTraverser(inspector PathInspector) *Traverser {
	if inspector == nil {
		inspector = inspect.NewInspector()
	}
	return &Traverser{inspector: inspector}
}

// Traverse evaluates the rule's target path and, for recursive directory
// rules, every entry beneath it. The visited set is local to this call; it is
// never shared across traversals of different rules.
func (traverser *Traverser) Traverse(rule rules.Rule) []Result {
	visitedPaths := make(map[string]struct{})
	return traverser.traversePath(rule, rule.Path, visitedPaths)
}

func (traverser *Traverser) traversePath(rule rules.Rule, path string, visitedPaths map[string]struct{}) []Result {
	observation := traverser.inspector.Inspect(path)
	nodeResult := Evaluate(rule, observation)

	if !rule.Recursive || !traverser.shouldDescend(rule, observation) {
		return []Result{nodeResult}
	}

	// Canonicalization gates descent only. A node whose canonical form was
	// already entered still gets its own result at its literal path.
	canonicalPath, canonicalError := traverser.inspector.Canonicalize(path)
	if canonicalError == nil {
		if _, alreadyVisited := visitedPaths[canonicalPath]; alreadyVisited {
			return []Result{nodeResult}
		}
		visitedPaths[canonicalPath] = struct{}{}
	}

	directoryEntries, readError := os.ReadDir(path)
	if readError != nil {
		// An enumerable policy target that cannot be listed is itself a
		// finding; the subtree degrades to this single error result.
		failure := inspect.AccessFailure{Kind: inspect.AccessErrorOther, Message: fmt.Sprintf(directoryUnreadableTemplateConstant, readError)}
		if os.IsPermission(readError) {
			failure.Kind = inspect.AccessErrorPermissionDenied
		}
		return []Result{Evaluate(rule, inspect.Observation{Path: path, Kind: observation.Kind, AccessError: &failure})}
	}

	results := []Result{nodeResult}
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(path, directoryEntry.Name())
		results = append(results, traverser.traversePath(rule, childPath, visitedPaths)...)
	}
	return results
}

// shouldDescend reports whether traversal recurses below the observed node.
// Directories always allow descent; symlinked directories only when the rule
// targets resolved state rather than the link node itself.
func (traverser *Traverser) shouldDescend(rule rules.Rule, observation inspect.Observation) bool {
	if observation.Kind == inspect.KindDirectory {
		return true
	}
	if observation.Kind == inspect.KindSymlink && rule.FollowSymlinkTarget {
		return observation.Target != nil && observation.Target.Kind == inspect.KindDirectory
	}
	return false
}
