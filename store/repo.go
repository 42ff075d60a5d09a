package store

import (
	"sync"

	memdb "github.com/hashicorp/go-memdb"
)

// Repo keeps the current state of every slot, keyed by family name.
//
// The store folds each family on a single worker, so a Repo sees at most one
// writer per name at a time and needs no compare-and-swap.
type Repo interface {
	Load(name string) (state any, ok bool, err error)
	Store(name string, state any) error
}

type inMemRepo struct {
	*sync.Map
}

func (r inMemRepo) Load(name string) (any, bool, error) {
	v, ok := r.Map.Load(name)
	return v, ok, nil
}

func (r inMemRepo) Store(name string, state any) error {
	r.Map.Store(name, state)
	return nil
}

// NewInMemoryRepo keeps slots in a sync.Map.
func NewInMemoryRepo() Repo {
	return inMemRepo{Map: &sync.Map{}}
}

const (
	slotTable = "slots"
	slotIndex = "id"
)

type slotRecord struct {
	Name  string
	State any
}

var slotSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		slotTable: {
			Name: slotTable,
			Indexes: map[string]*memdb.IndexSchema{
				slotIndex: {
					Name:    slotIndex,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Name"},
				},
			},
		},
	},
}

type memDBRepo struct {
	db *memdb.MemDB
}

// NewMemDBRepo keeps slots in a go-memdb table, which gives readers
// consistent snapshots while a worker writes.
func NewMemDBRepo() (Repo, error) {
	db, err := memdb.NewMemDB(slotSchema)
	if err != nil {
		return nil, err
	}
	return memDBRepo{db: db}, nil
}

func (m memDBRepo) Load(name string) (any, bool, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(slotTable, slotIndex, name)
	if err != nil || raw == nil {
		return nil, false, err
	}
	return raw.(*slotRecord).State, true, nil
}

func (m memDBRepo) Store(name string, state any) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(slotTable, &slotRecord{Name: name, State: state}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
