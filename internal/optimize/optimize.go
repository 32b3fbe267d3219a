// Package optimize holds the finishing passes over a generated tree.
//
// A pass maps a tree to a new tree and never sees the linker, so it cannot
// invalidate a resolved path.
package optimize

import (
	"fmt"
	"log/slog"

	"github.com/roach88/packc/internal/vfs"
)

// Level selects which passes run.
type Level string

const (
	None Level = "none"
	O1   Level = "O1"
	O2   Level = "O2"
	O3   Level = "O3"
)

// Levels lists the accepted levels in increasing order.
var Levels = []Level{None, O1, O2, O3}

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown optimisation level %q (want none, O1, O2 or O3)", s)
}

// Pass is one tree-to-tree transform.
type Pass interface {
	Name() string
	Apply(*vfs.Tree) *vfs.Tree
}

// passes are the transforms enabled at each level. No level has any yet;
// every level produces a tree equal to its input.
var passes = map[Level][]Pass{}

// Run applies the passes of level to a copy of tree.
func Run(tree *vfs.Tree, level Level, log *slog.Logger) *vfs.Tree {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	out := tree.Clone()
	for _, p := range passes[level] {
		out = p.Apply(out)
		log.Debug("optimisation pass", "pass", p.Name())
	}
	log.Info("optimised", "level", string(level), "passes", len(passes[level]), "files", out.Len())
	return out
}
