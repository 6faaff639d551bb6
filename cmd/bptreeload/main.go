// Command bptreeload drives a tree from the command line: bulk-load keys
// from a file, remove keys named in another, then optionally dump the
// resulting shape to a dot file. Mainly useful for exercising a tree
// against larger inputs than the unit tests bother with.
package main

import (
	"flag"
	"fmt"
	"os"

	"bptreeidx/config"
	"bptreeidx/pkg/bptree"
	"bptreeidx/pkg/storage"
	"bptreeidx/util/logger"
)

func main() {
	insertPath := flag.String("insert", "", "file of \"key value\" lines to insert")
	removePath := flag.String("remove", "", "file of key lines to remove")
	drawPath := flag.String("draw", "", "optional dot file to write the resulting tree shape to")
	keySize := flag.Int("key-size", 8, "fixed key width in bytes")
	valueSize := flag.Int("value-size", 8, "fixed value width in bytes")
	leafMaxSize := flag.Int("leaf-max-size", 0, "leaf fan-out (0 = config default)")
	internalMaxSize := flag.Int("internal-max-size", 0, "internal fan-out (0 = config default)")
	flag.Parse()

	if *insertPath == "" && *removePath == "" {
		fatal(fmt.Errorf("at least one of -insert or -remove is required"))
	}

	cfg := config.New()
	if *leafMaxSize > 0 {
		cfg.Tree.LeafMaxSize = *leafMaxSize
	}
	if *internalMaxSize > 0 {
		cfg.Tree.InternalMaxSize = *internalMaxSize
	}

	opts := bptree.Options{
		PageSize:        cfg.BufferPool.PageSize,
		KeySize:         *keySize,
		ValueSize:       *valueSize,
		LeafMaxSize:     cfg.Tree.LeafMaxSize,
		InternalMaxSize: cfg.Tree.InternalMaxSize,
	}

	pool := storage.NewBufferPool(cfg.BufferPool.PoolSize, cfg.BufferPool.PageSize)
	tree, err := bptree.Open("bptreeload", pool, bptree.ByteComparator{}, opts)
	if err != nil {
		fatal(err)
	}

	if *insertPath != "" {
		if err := tree.InsertFromFile(*insertPath); err != nil {
			fatal(err)
		}
		logger.Component("bptreeload").WithField("file", *insertPath).Info("insert pass complete")
	}

	if *removePath != "" {
		if err := tree.RemoveFromFile(*removePath); err != nil {
			fatal(err)
		}
		logger.Component("bptreeload").WithField("file", *removePath).Info("remove pass complete")
	}

	if *drawPath != "" {
		if err := tree.Draw(*drawPath); err != nil {
			fatal(err)
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "bptreeload:", err)
	os.Exit(1)
}
