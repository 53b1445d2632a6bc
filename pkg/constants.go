package detectdupes

// Cache store constants
const (
	HashTable  = "hashes"
	FlushSize  = 1000 // buffered inserts per transaction before an automatic commit
	LockSuffix = ".lock"
)

// Companion files SQLite keeps next to the cache database
var storeCompanionSuffixes = []string{"-wal", "-shm", "-journal", LockSuffix}

// Hash size constants
const (
	HashSizeMD5    = 16
	HashSizeSHA1   = 20
	HashSizeSHA256 = 32
	HashSizeSHA512 = 64
)

// DefaultHashAlgorithm matches the 128-bit digest older caches were written with
const DefaultHashAlgorithm = "md5"

// DefaultHashBuffer is the read buffer used while hashing
const DefaultHashBuffer = 2 * 1024 * 1024

// Output formats
const (
	FormatHuman  = "human"
	FormatJSON   = "json"
	FormatFdupes = "fdupes"
)
