// Package vfs is the in-memory file tree a pack is generated into.
//
// Nodes live in an arena owned by the Tree and are addressed by NodeID.
// A parent stores the IDs of its children; a node records its single
// parent, and Attach refuses a node that already has one.
package vfs

import (
	"path"
	"slices"
	"strings"

	"github.com/roach88/packc/internal/diag"
)

// NodeID addresses a node of one Tree.
type NodeID int

// NoNode is the parent of the root and of detached nodes.
const NoNode NodeID = -1

// Kind is the type of a node.
type Kind int

const (
	Folder Kind = iota
	RawFile
	CommandFile
)

// CommandExt is the extension of rendered command files.
const CommandExt = ".mcfunction"

type node struct {
	name     string
	kind     Kind
	parent   NodeID
	children []NodeID
	data     []byte
	lines    []string
}

// Tree is an arena of nodes rooted at a nameless folder.
type Tree struct {
	nodes     []node
	generated NodeID
	namespace string
}

// New returns a tree holding only the root folder.
func New() *Tree {
	return &Tree{nodes: []node{{kind: Folder, parent: NoNode}}, generated: NoNode}
}

// Root returns the root folder.
func (t *Tree) Root() NodeID { return 0 }

func (t *Tree) at(id NodeID) *node {
	diag.Assert(id >= 0 && int(id) < len(t.nodes), "node %d is not part of the tree", id)
	return &t.nodes[id]
}

func (t *Tree) add(n node) NodeID {
	n.parent = NoNode
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// NewFolder creates a detached folder.
func (t *Tree) NewFolder(name string) NodeID { return t.add(node{name: name, kind: Folder}) }

// NewFile creates a detached raw file.
func (t *Tree) NewFile(name string, data []byte) NodeID {
	return t.add(node{name: name, kind: RawFile, data: slices.Clone(data)})
}

// NewCommandFile creates a detached command file. name excludes the
// extension.
func (t *Tree) NewCommandFile(name string, lines []string) NodeID {
	return t.add(node{name: name, kind: CommandFile, lines: slices.Clone(lines)})
}

// Attach makes child a child of parent. A node has exactly one parent and
// names are unique within a folder; breaking either is a defect.
func (t *Tree) Attach(parent, child NodeID) {
	p, c := t.at(parent), t.at(child)
	diag.Assert(p.kind == Folder, "cannot attach %q under file %q", c.name, p.name)
	diag.Assert(c.parent == NoNode && child != t.Root(), "node %q already has a parent", c.name)
	_, clash := t.ChildFile(parent, t.FileName(child))
	diag.Assert(!clash, "folder %q already has a child %q", t.Path(parent), t.FileName(child))
	c.parent = parent
	p.children = append(p.children, child)
}

// Child returns the child of parent with the given name.
func (t *Tree) Child(parent NodeID, name string) (NodeID, bool) {
	for _, id := range t.at(parent).children {
		if t.nodes[id].name == name {
			return id, true
		}
	}
	return NoNode, false
}

// ChildFile returns the child of parent with the given on-disk name.
func (t *Tree) ChildFile(parent NodeID, fileName string) (NodeID, bool) {
	for _, id := range t.at(parent).children {
		if t.FileName(id) == fileName {
			return id, true
		}
	}
	return NoNode, false
}

func (t *Tree) Name(id NodeID) string       { return t.at(id).name }
func (t *Tree) Kind(id NodeID) Kind         { return t.at(id).kind }
func (t *Tree) Parent(id NodeID) NodeID     { return t.at(id).parent }
func (t *Tree) Children(id NodeID) []NodeID { return slices.Clone(t.at(id).children) }
func (t *Tree) Lines(id NodeID) []string    { return slices.Clone(t.at(id).lines) }

// Data returns the bytes of a file. Command files are rendered one line
// per command, newline-terminated.
func (t *Tree) Data(id NodeID) []byte {
	n := t.at(id)
	switch n.kind {
	case RawFile:
		return slices.Clone(n.data)
	case CommandFile:
		if len(n.lines) == 0 {
			return []byte{}
		}
		return []byte(strings.Join(n.lines, "\n") + "\n")
	}
	diag.Internalf("node %q is a folder", n.name)
	return nil
}

// AppendLines adds commands to a command file.
func (t *Tree) AppendLines(id NodeID, lines ...string) {
	n := t.at(id)
	diag.Assert(n.kind == CommandFile, "node %q is not a command file", n.name)
	n.lines = append(n.lines, lines...)
}

// SetLines replaces the commands of a command file.
func (t *Tree) SetLines(id NodeID, lines []string) {
	n := t.at(id)
	diag.Assert(n.kind == CommandFile, "node %q is not a command file", n.name)
	n.lines = slices.Clone(lines)
}

// FileName is the on-disk name of a node.
func (t *Tree) FileName(id NodeID) string {
	n := t.at(id)
	if n.kind == CommandFile {
		return n.name + CommandExt
	}
	return n.name
}

// Path returns the slash-separated on-disk path of id relative to the
// root.
func (t *Tree) Path(id NodeID) string {
	var parts []string
	for cur := id; cur != t.Root(); cur = t.at(cur).parent {
		diag.Assert(cur != NoNode, "node %d is detached", id)
		parts = append(parts, t.FileName(cur))
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// MkdirAll returns the folder at the slash-separated path, creating the
// missing folders. An existing file on the way is a defect.
func (t *Tree) MkdirAll(p string) NodeID {
	cur := t.Root()
	for _, seg := range splitPath(p) {
		next, ok := t.Child(cur, seg)
		if !ok {
			next = t.NewFolder(seg)
			t.Attach(cur, next)
		}
		diag.Assert(t.Kind(next) == Folder, "%q is not a folder", t.Path(next))
		cur = next
	}
	return cur
}

// Lookup finds a node by its on-disk path.
func (t *Tree) Lookup(p string) (NodeID, bool) {
	cur := t.Root()
	for _, seg := range splitPath(p) {
		next, ok := t.ChildFile(cur, seg)
		if !ok {
			return NoNode, false
		}
		cur = next
	}
	return cur, true
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(path.Clean("/"+p), "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// SetGenerated marks folder as the root of the function namespace ns.
// Canonical names are relative to it.
func (t *Tree) SetGenerated(folder NodeID, ns string) {
	diag.Assert(t.Kind(folder) == Folder, "generated root must be a folder")
	t.generated = folder
	t.namespace = ns
}

// CanonicalName returns the resource location of a node below the
// generated root, e.g. "ns:foo_0/s1/main".
func (t *Tree) CanonicalName(id NodeID) string {
	diag.Assert(t.generated != NoNode, "tree has no generated root")
	var parts []string
	cur := id
	for cur != t.generated {
		diag.Assert(cur != NoNode && cur != t.Root(), "node %q is outside the generated root", t.Name(id))
		parts = append(parts, t.at(cur).name)
		cur = t.at(cur).parent
	}
	slices.Reverse(parts)
	return t.namespace + ":" + strings.Join(parts, "/")
}

// WalkFunc visits one node. Returning false skips the node's children.
type WalkFunc func(id NodeID, p string) bool

// Walk visits every attached node below the root in insertion order,
// parents before children.
func (t *Tree) Walk(fn WalkFunc) {
	var visit func(id NodeID)
	visit = func(id NodeID) {
		for _, c := range t.at(id).children {
			if fn(c, t.Path(c)) {
				visit(c)
			}
		}
	}
	visit(t.Root())
}

// Files returns the paths of every file in walk order.
func (t *Tree) Files() []string {
	var out []string
	t.Walk(func(id NodeID, p string) bool {
		if t.Kind(id) != Folder {
			out = append(out, p)
		}
		return true
	})
	return out
}

// Len returns the number of attached files.
func (t *Tree) Len() int { return len(t.Files()) }

// Clone returns an independent deep copy.
func (t *Tree) Clone() *Tree {
	c := &Tree{nodes: make([]node, len(t.nodes)), generated: t.generated, namespace: t.namespace}
	for i, n := range t.nodes {
		n.children = slices.Clone(n.children)
		n.data = slices.Clone(n.data)
		n.lines = slices.Clone(n.lines)
		c.nodes[i] = n
	}
	return c
}

// Listing renders every file path with its size, one per line.
func (t *Tree) Listing() string {
	var b strings.Builder
	t.Walk(func(id NodeID, p string) bool {
		if t.Kind(id) == Folder {
			b.WriteString(p + "/\n")
		} else {
			b.WriteString(p + "\n")
		}
		return true
	})
	return b.String()
}
