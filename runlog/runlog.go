// Package runlog keeps a history of simulation runs in a bolt database.
package runlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID        uint64 `json:"id" boltholdKey:"ID"`
	CreatedAt int64  `json:"createdAt" boltholdIndex:"CreatedAt"`

	Particles int     `json:"particles"`
	Size      int     `json:"size"`
	Delete    []int   `json:"delete"`
	DeleteA   []int   `json:"deleteA"`
	Workers   int     `json:"workers"`
	Seed      int64   `json:"seed"`
	TimeFinal float64 `json:"timeFinal"`
	Steps     int     `json:"steps"`

	States      int `json:"states"`
	StatesA     int `json:"statesA"`
	Eigenvector int `json:"eigenvector"`

	GroundEnergy   float64 `json:"groundEnergy"`
	FinalEntropy   float64 `json:"finalEntropy"`
	MaxDiagonal    float64 `json:"maxDiagonal"`
	MaxOffDiagonal float64 `json:"maxOffDiagonal"`
	Warnings       int     `json:"warnings"`

	Stages map[string]time.Duration `json:"stages"`
	Total  time.Duration            `json:"total"`
}

// Log is an open run history.
type Log struct {
	db *bolthold.Store
}

// Open opens or creates the run history at path.
func Open(path string) (*Log, error) {
	db, err := bolthold.Open(path, 0o644, &bolthold.Options{
		Encoder: json.Marshal,
		Decoder: json.Unmarshal,
		Options: &bbolt.Options{
			Timeout:      5 * time.Second,
			NoGrowSync:   bbolt.DefaultOptions.NoGrowSync,
			FreelistType: bbolt.DefaultOptions.FreelistType,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("runlog: opening %s: %w", path, err)
	}
	return &Log{db: db}, nil
}

// Add stores run and sets its ID. CreatedAt is filled in when zero.
func (l *Log) Add(run *Run) error {
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().Unix()
	}
	if err := l.db.Insert(bolthold.NextSequence(), run); err != nil {
		return fmt.Errorf("runlog: insert: %w", err)
	}
	// write back id to db
	if err := l.db.Update(run.ID, run); err != nil {
		return fmt.Errorf("runlog: update %d: %w", run.ID, err)
	}
	return nil
}

// Get returns the run with the given ID.
func (l *Log) Get(id uint64) (*Run, error) {
	run := &Run{}
	if err := l.db.Get(id, run); err != nil {
		return nil, fmt.Errorf("runlog: get %d: %w", id, err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first. A limit of 0 returns all runs.
func (l *Log) Recent(limit int) ([]Run, error) {
	query := (&bolthold.Query{}).SortBy("ID").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	var runs []Run
	if err := l.db.Find(&runs, query); err != nil {
		return nil, fmt.Errorf("runlog: find: %w", err)
	}
	return runs, nil
}

// Close releases the database file.
func (l *Log) Close() error {
	return l.db.Close()
}
