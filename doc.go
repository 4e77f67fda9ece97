/*
Package vectoria implements the storage core of an embedded vector database.

It persists fixed-dimension float32 vectors to a single random-access file
per database, retrieves them by identifier via binary search, and maintains
a multi-layer proximity graph alongside the vectors. The graph layers store
connectivity only; approximate-nearest-neighbor traversal over them is
deliberately out of scope.

# Quick Start

Create a database, store vectors, and read them back:

	package main

	import (
	    "fmt"
	    "log"

	    "github.com/zhufucdev/vectoria"
	)

	func main() {
	    ms, err := vectoria.NewManagementSystem("data")
	    if err != nil {
	        log.Fatal(err)
	    }
	    defer ms.Close()

	    db, err := ms.Create("embeddings", 384)
	    if err != nil {
	        log.Fatal(err)
	    }

	    vec := make(vectoria.Vector, 384)
	    // ... populate vec with your embedding ...
	    id, err := db.Push(vec)
	    if err != nil {
	        log.Fatal(err)
	    }

	    stored, found, err := db.Get(id)
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(found, len(stored))
	}

A Database can also be built directly on any io.ReadWriteSeeker via
NewDatabase and ReadDatabase; the management system only adds directory
layout, name uniqueness, and caching of loaded databases.

# File Format

One file per database, big-endian throughout:

	[Header]
	  product tag "vectoriadb;version" (no length prefix)
	  version: u8
	  data section offset: u64
	  dimension: u32
	[Layer section] (zero or more layers)
	  level: u32           (0 terminates the section)
	  repeated edges: a: u32, b: u32, distance: f32
	  terminator edge: a=0, b=0 (no distance field)
	[Data section] (zero or more records, strictly ascending id order)
	  id: u32
	  dimension x f32 components

Records are fixed width, so lookup is a binary search over the data
section and removal compacts the file in place by shifting the tail
backward one record width.

# Caching

Each Database memoizes fetched and freshly written vectors in memory. The
cache representation is pluggable: the default keeps full float32
precision, and WithCacheQuantizer(&HalfPrecisionQuantizer{}) halves the
resident size using IEEE 754 half-precision storage.

# Concurrency

All Database and ManagementSystem methods are safe for concurrent use.
Operations are synchronous and run to completion; there is no cancellation
or timeout support. Durability is whatever the underlying write calls
provide - Flush is declared but unimplemented.
*/
package vectoria
