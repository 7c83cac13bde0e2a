package badger

import (
	"fmt"
	"strings"
)

// Key prefixes for different data types
const (
	collectionPrefix = "col"
	objectPrefix     = "obj"
	vectorPrefix     = "vec"
)

// makeCollectionKey generates the key holding a collection definition.
func makeCollectionKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, name))
}

// makeObjectKey generates a key for a record.
// Format: prefix:collection:id
func makeObjectKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", objectPrefix, collection, id))
}

// makeObjectPrefix generates the prefix shared by all records of a collection.
func makeObjectPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", objectPrefix, collection))
}

// makeVectorKey generates a key for a record's embedding.
// Format: prefix:collection:id
func makeVectorKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", vectorPrefix, collection, id))
}

// makeVectorPrefix generates the prefix shared by all embeddings of a collection.
func makeVectorPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vectorPrefix, collection))
}

// idFromKey extracts the record id from an object or vector key.
func idFromKey(key []byte) string {
	s := string(key)
	return s[strings.LastIndexByte(s, ':')+1:]
}
