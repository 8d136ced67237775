// Command skipcache inspects a memo-cache file written by package
// serialize: it prints the header and each record's tag without fully
// replaying the invocation graph, the way a developer would dump a cache
// file to debug a build-hash mismatch.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/skiplang/skiprt/internal/nlog"
	"github.com/skiplang/skiprt/serialize"
)

func main() {
	path := flag.String("f", "", "memo-cache file to dump")
	dir := flag.String("dir", "", "sharded memo-cache directory to dump every *.skipcache file from")
	buildHash := flag.Uint64("build-hash", 0, "expected build hash; 0 accepts any")
	flag.Parse()

	if *path == "" && *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: skipcache -f <memo-cache-file> | -dir <shard-dir> [-build-hash N]")
		os.Exit(2)
	}

	if *dir != "" {
		if err := dumpDir(*dir, *buildHash); err != nil {
			nlog.Errorln(err)
			os.Exit(1)
		}
		return
	}

	if err := dump(*path, *buildHash); err != nil {
		nlog.Errorln(err)
		os.Exit(1)
	}
}

// dumpDir enumerates every shard file in dir and dumps each in turn,
// continuing past a single shard's error so one corrupt file doesn't hide
// the rest of the directory's contents.
func dumpDir(dir string, buildHash uint64) error {
	shards, err := serialize.EnumerateShards(dir)
	if err != nil {
		return err
	}
	for _, path := range shards {
		fmt.Printf("=== %s ===\n", path)
		if err := dump(path, buildHash); err != nil {
			nlog.Errorf("skipcache: %s: %v", path, err)
		}
	}
	return nil
}

func dump(path string, buildHash uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := serialize.NewReader(f, buildHash)
	if err != nil {
		return err
	}

	count := 0
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		count++
		fmt.Printf("record %d: tag=%d vtable_id=%d bytes=%d\n", count, rec.Tag, rec.VTableID, len(rec.UserBytes))
	}
	fmt.Printf("%d records\n", count)
	return nil
}
