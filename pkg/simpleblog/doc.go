// Package simpleblog provides a reusable library for multi-entity CRUD
// resources with pluggable document-store backends.
//
// It exposes a generic Resource that orchestrates the six operations every
// entity shares (create, update, buffered list, streamed list, get by id,
// delete by id) over a Store, enforcing the identity contract: ids are
// assigned by the store on first insert, a create carrying an id is rejected,
// and an update without one is rejected. Store implementations (memory,
// Postgres, Redis) are provided under subpackages.
//
// Collection reads yield a pull-based Cursor. Consumers either materialize it
// with Collect (one JSON array response) or forward it element by element
// (streamed response); both consume the same store read.
package simpleblog
