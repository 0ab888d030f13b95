package integration

import (
	"github.com/Fantom-foundation/lachesis-base/kvdb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/leveldb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
)

// DBProducer opens the database backend for a datadir. An empty datadir
// yields throwaway in-memory databases.
func DBProducer(datadir string) kvdb.IterableDBProducer {
	if datadir == "" {
		return memorydb.NewProducer("")
	}
	return leveldb.NewProducer(datadir, dbCache)
}

// dbCache allots cache bytes and file handles per database.
func dbCache(string) (int, int) {
	return 16 * 1024 * 1024, 256
}
