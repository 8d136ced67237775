package serialize

import (
	"sort"
	"strings"

	"github.com/karrick/godirwalk"

	"github.com/skiplang/skiprt/internal/xerr"
)

// ShardSuffix is the file extension a sharded memo-cache directory uses;
// EnumerateShards only collects files ending in this suffix, skipping
// everything else (temp files mid-write, stray Close-interrupted partials
// named with a different extension).
const ShardSuffix = ".skipcache"

// EnumerateShards lists every memo-cache shard file directly under dir, in
// sorted order. A large cache directory can hold thousands of per-Invocation
// shard files (spec §4.10's single-file format, replicated one-per-shard
// for a sharded on-disk layout); godirwalk.ReadDirents avoids the
// per-entry lstat that os.ReadDir/filepath.Walk does over a plain
// directory scan, which matters once the shard count gets large.
func EnumerateShards(dir string) ([]string, error) {
	entries, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, xerr.NewIOError("serialize: enumerate shards", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ShardSuffix) {
			continue
		}
		paths = append(paths, dir+"/"+e.Name())
	}
	sort.Strings(paths)
	return paths, nil
}
