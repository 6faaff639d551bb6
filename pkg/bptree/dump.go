package bptree

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"bptreeidx/pkg/storage"
)

// Draw writes a Graphviz dot file describing the tree's current shape:
// one box per node listing its keys, one edge per parent/child link, and
// dashed edges tracing the leaf sibling chain. Grounded on BusTub's
// ToGraph, which walks the tree the same way to build a .dot file for
// debugging.
func (t *Tree) Draw(path string) error {
	t.rootMu.RLock()
	defer t.rootMu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "bptree: creating dump file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "// run %s\n", t.header.RunID())
	fmt.Fprintln(w, "digraph G {")
	fmt.Fprintln(w, "  node [shape=record];")

	if err := t.drawNode(w, t.rootID()); err != nil {
		return err
	}

	fmt.Fprintln(w, "}")
	return w.Flush()
}

func (t *Tree) drawNode(w *bufio.Writer, id storage.PageID) error {
	frame, err := t.pool.FetchPage(id)
	if err != nil {
		return errors.Wrapf(err, "bptree: dumping page %d", id)
	}
	frame.RLatch()
	node := viewNode(frame, t.opts)

	fmt.Fprintf(w, "  p%d [label=\"%s\"];\n", id, nodeLabel(node))

	if node.IsLeaf() {
		if next := node.NextLeafID(); next != storage.InvalidPageID {
			fmt.Fprintf(w, "  p%d -> p%d [style=dashed, constraint=false];\n", id, next)
		}
		frame.Release()
		return nil
	}

	children := make([]storage.PageID, node.Size())
	for i := range children {
		children[i] = node.ChildAt(i)
	}
	frame.Release()

	for _, child := range children {
		fmt.Fprintf(w, "  p%d -> p%d;\n", id, child)
		if err := t.drawNode(w, child); err != nil {
			return err
		}
	}
	return nil
}

func nodeLabel(node *Node) string {
	label := fmt.Sprintf("id=%d|", node.PageID())
	for i := 0; i < node.Size(); i++ {
		if i > 0 {
			label += "|"
		}
		if node.IsLeaf() || i > 0 {
			label += fmt.Sprintf("%x", node.KeyAt(i))
		} else {
			label += "*"
		}
	}
	return label
}

// Print writes a breadth-first, human-readable dump of the tree to the
// component logger, one line per level. Intended for interactive
// debugging, not machine parsing.
func (t *Tree) Print() {
	t.rootMu.RLock()
	defer t.rootMu.RUnlock()

	level := []storage.PageID{t.rootID()}
	depth := 0
	for len(level) > 0 {
		var line string
		var next []storage.PageID
		for _, id := range level {
			frame, err := t.pool.FetchPage(id)
			if err != nil {
				continue
			}
			frame.RLatch()
			node := viewNode(frame, t.opts)
			line += "[" + nodeLabel(node) + "] "
			if !node.IsLeaf() {
				for i := 0; i < node.Size(); i++ {
					next = append(next, node.ChildAt(i))
				}
			}
			frame.Release()
		}
		log.WithField("depth", depth).Info(line)
		level = next
		depth++
	}
}
