package ty

import "fmt"

// Database is what inference needs to know about the rest of the program:
// the variances of items and the scope tree regions are defined over
type Database interface {
	// ItemVariances returns the variances of def's generic parameters.
	// If def is unknown, its parameters are treated as invariant
	ItemVariances(def DefID) (ItemVariances, bool)
	// IsSubscopeOf reports whether sub is nested in sup, or equal to it
	IsSubscopeOf(sub, sup ScopeID) bool
	// NearestCommonAncestor returns the innermost scope enclosing both a and b
	NearestCommonAncestor(a, b ScopeID) (ScopeID, bool)
}

type Item struct {
	Def       DefID
	Generics  Generics
	Variances ItemVariances
}

// MemDB is an in-memory Database
type MemDB struct {
	items   map[DefID]Item
	parents map[ScopeID]ScopeID
}

var _ Database = (*MemDB)(nil)

func NewMemDB() *MemDB {
	return &MemDB{
		items:   map[DefID]Item{},
		parents: map[ScopeID]ScopeID{},
	}
}

func (db *MemDB) AddItem(item Item) *MemDB {
	db.items[item.Def] = item
	return db
}

// AddScope declares scope as nested directly inside parent
func (db *MemDB) AddScope(scope, parent ScopeID) *MemDB {
	if scope == parent {
		panic(fmt.Sprintf("ty: scope %d cannot be its own parent", scope))
	}
	db.parents[scope] = parent
	return db
}

func (db *MemDB) Item(def DefID) (Item, bool) {
	item, ok := db.items[def]
	return item, ok
}

func (db *MemDB) ItemVariances(def DefID) (ItemVariances, bool) {
	item, ok := db.items[def]
	if !ok {
		return ItemVariances{}, false
	}
	return item.Variances, true
}

func (db *MemDB) IsSubscopeOf(sub, sup ScopeID) bool {
	for s := sub; ; {
		if s == sup {
			return true
		}
		parent, ok := db.parents[s]
		if !ok {
			return false
		}
		s = parent
	}
}

func (db *MemDB) NearestCommonAncestor(a, b ScopeID) (ScopeID, bool) {
	ancestors := map[ScopeID]bool{}
	for s, ok := a, true; ok; s, ok = db.parents[s] {
		ancestors[s] = true
	}
	for s, ok := b, true; ok; s, ok = db.parents[s] {
		if ancestors[s] {
			return s, true
		}
	}
	return 0, false
}
