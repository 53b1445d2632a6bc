// Package detectdupes finds files with identical content in directory trees
// and optionally deletes the redundant copies.
//
// # Core API
//
// The main entry point is Detector, which scans one or more roots:
//
//	d := detectdupes.NewDetector(afero.NewOsFs(), detectdupes.DetectorOptions{
//		Roots:     []string{"/srv/photos"},
//		Recursive: true,
//		CacheFile: "/var/cache/detectdupes.db",
//	})
//	result, err := d.Run(nil)
//	for _, group := range result.Report.Groups() {
//		fmt.Printf("%s: %v\n", group.Canonical, group.Duplicates())
//	}
//
// # Candidate index
//
// CandidateIndex groups files by exact size. The first file of a size is
// kept as an unhashed placeholder; only when a second file of that size
// arrives are both hashed. The first path seen for a digest is canonical,
// later ones are reported as duplicates of it.
//
// # Hash cache
//
// HashCache keeps every digest in memory and, when given a database,
// appends new digests to a SQLite table in transactions of FlushSize rows.
// Failing to write that table is fatal (ErrCacheWrite); failing to read a
// file only skips it (ErrHashIO).
//
// # Configuration
//
// Enable debug output:
//
//	detectdupes.SetDebugFlags("index,cache")
//	detectdupes.SetVerboseLevel(2)
package detectdupes
