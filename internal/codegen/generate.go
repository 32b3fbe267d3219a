// Package codegen realises a linked IR module as a virtual file tree: the
// pack metadata, the entry-point tags and one command file per fragment
// per recursion depth.
package codegen

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/packc/internal/canon"
	"github.com/roach88/packc/internal/ir"
	"github.com/roach88/packc/internal/linker"
	"github.com/roach88/packc/internal/vfs"
)

// Marker files. An existing output directory is only replaced when both
// are present.
const (
	MetaFile   = "pack.mcmeta"
	MarkerFile = "generated.json"
)

// DefaultPackFormat is used when Options.PackFormat is zero.
const DefaultPackFormat = 15

// Options configures generation.
type Options struct {
	Description string
	PackFormat  int
	Version     string // compiler version recorded in the marker
	BuildID     string // random when empty
	Logger      *slog.Logger
}

type rendered struct {
	location string // resource location, e.g. ns:foo_0/s1/main
	lines    []string
}

type generator struct {
	lk   *linker.Linker
	mod  *ir.Module
	ns   string
	r    *renderer
	out  []rendered
	opts Options
}

// Generate renders every function of the linked module into a new tree.
func Generate(lk *linker.Linker, opts Options) *vfs.Tree {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.PackFormat == 0 {
		opts.PackFormat = DefaultPackFormat
	}
	if opts.BuildID == "" {
		opts.BuildID = uuid.NewString()
	}
	g := &generator{lk: lk, mod: lk.Module(), ns: lk.Namespace(), r: newRenderer(lk), opts: opts}

	g.synthetic()
	for _, fn := range g.mod.Functions() {
		g.user(fn)
	}
	tree := g.assemble()
	opts.Logger.Info("generated", "files", tree.Len(), "functions", len(g.mod.Functions()), "depths", lk.Limit()+1)
	return tree
}

func (g *generator) emit(location string, lines []string) {
	g.out = append(g.out, rendered{location: location, lines: lines})
}

// synthetic renders import, setup, load, tick and the error sink.
func (g *generator) synthetic() {
	var imp []string
	for _, obj := range g.lk.Objectives() {
		imp = append(imp, "scoreboard objectives add "+obj+" dummy")
	}
	for _, c := range g.lk.Constants() {
		imp = append(imp, fmt.Sprintf("scoreboard players set %s %s %d", g.lk.Constant(c).Holder, g.lk.ConstObjective(), c.Int))
	}

	for _, fn := range g.mod.Synthetic() {
		for _, fr := range fn.Fragments() {
			lines := g.r.fragment(fr, linker.SyntheticDepth)
			if fn == g.mod.Import && fr == fn.Main {
				lines = append(lines, imp...)
			}
			g.emit(g.lk.Fragment(fr, linker.SyntheticDepth), lines)
		}
	}

	errFlag := g.lk.Variable(g.mod.ErrorFlag).Holder
	g.emit(g.lk.ErrorSink(), []string{
		fmt.Sprintf("scoreboard players set %s %s 1", errFlag, g.lk.GlobalObjective()),
	})
}

// user renders fn at every depth below the limit and the overflow stub at
// the limit.
func (g *generator) user(fn *ir.Function) {
	limit := g.lk.Limit()
	for d := 0; d < limit; d++ {
		for _, fr := range fn.Fragments() {
			g.emit(g.lk.Fragment(fr, d), g.r.fragment(fr, d))
		}
	}
	msg := canon.Obj(
		canon.P("color", canon.String("red")),
		canon.P("text", canon.String(fmt.Sprintf("[%s] recursion limit of %d reached in %s", g.ns, limit, fn.Name))),
	)
	g.emit(g.lk.Main(fn, limit), []string{
		"tellraw @a " + string(canon.MustMarshal(msg)),
		"function " + g.lk.ErrorSink(),
	})
}

// diskPath maps a resource location to its file below the pack root.
func (g *generator) diskPath(location string) (folder, name string) {
	ns, rest, _ := strings.Cut(location, ":")
	full := "data/" + ns + "/functions/" + rest
	i := strings.LastIndexByte(full, '/')
	return full[:i], full[i+1:]
}

func (g *generator) assemble() *vfs.Tree {
	meta := canon.MustMarshal(canon.Obj(canon.P("pack", canon.Obj(
		canon.P("description", canon.String(g.opts.Description)),
		canon.P("pack_format", canon.Int(g.opts.PackFormat)),
	))))
	loadTag := canon.MustMarshal(canon.Obj(canon.P("values", canon.Strings(
		g.lk.Main(g.mod.Import, linker.SyntheticDepth),
		g.lk.Main(g.mod.Setup, linker.SyntheticDepth),
		g.lk.Main(g.mod.Load, linker.SyntheticDepth),
	))))
	tickTag := canon.MustMarshal(canon.Obj(canon.P("values", canon.Strings(
		g.lk.Main(g.mod.Tick, linker.SyntheticDepth),
	))))
	const tagDir = "data/minecraft/tags/functions"

	files := []canon.File{
		{Path: MetaFile, Content: meta},
		{Path: tagDir + "/load.json", Content: loadTag},
		{Path: tagDir + "/tick.json", Content: tickTag},
	}
	for _, f := range g.out {
		folder, name := g.diskPath(f.location)
		content := ""
		if len(f.lines) > 0 {
			content = strings.Join(f.lines, "\n") + "\n"
		}
		files = append(files, canon.File{Path: folder + "/" + name + vfs.CommandExt, Content: []byte(content)})
	}
	marker := canon.MustMarshal(canon.Obj(
		canon.P("build_id", canon.String(g.opts.BuildID)),
		canon.P("compiler", canon.String(strings.TrimSpace("packc "+g.opts.Version))),
		canon.P("fingerprint", canon.String(canon.Fingerprint(files))),
		canon.P("namespace", canon.String(g.ns)),
	))

	t := vfs.New()
	t.Attach(t.Root(), t.NewFile(MetaFile, meta))
	t.Attach(t.Root(), t.NewFile(MarkerFile, marker))
	tags := t.MkdirAll(tagDir)
	t.Attach(tags, t.NewFile("load.json", loadTag))
	t.Attach(tags, t.NewFile("tick.json", tickTag))

	fnRoot := t.MkdirAll("data/" + g.ns + "/functions")
	t.SetGenerated(fnRoot, g.ns)
	for _, f := range g.out {
		folder, name := g.diskPath(f.location)
		t.Attach(t.MkdirAll(folder), t.NewCommandFile(name, f.lines))
	}
	return t
}

// Marker is the content of the generated.json marker.
type Marker struct {
	BuildID     string `json:"build_id"`
	Compiler    string `json:"compiler"`
	Fingerprint string `json:"fingerprint"`
	Namespace   string `json:"namespace"`
}

// ReadMarker decodes a generated.json marker.
func ReadMarker(data []byte) (Marker, error) {
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return Marker{}, fmt.Errorf("decode %s: %w", MarkerFile, err)
	}
	if m.Fingerprint == "" {
		return Marker{}, fmt.Errorf("decode %s: missing fingerprint", MarkerFile)
	}
	return m, nil
}
