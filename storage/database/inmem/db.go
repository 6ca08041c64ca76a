package inmemdb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/ids"
	"github.com/trezcool/mahudhurio/core/leave"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/core/warning"
)

type (
	DB struct {
		user    *userTable
		session *sessionTable
		record  *recordTable
		leave   *leaveTable
		warning *warningTable
		seq     *sequenceTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*attendance.Session
	}

	recordTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	leaveTable struct {
		sync.RWMutex
		table map[string]*leave.Request
	}

	warningTable struct {
		sync.RWMutex
		table map[string]*warning.Warning
	}

	// sequenceTable tracks the last allocated identifier per prefix.
	sequenceTable struct {
		sync.Mutex
		last map[string]string
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		session: &sessionTable{table: make(map[string]*attendance.Session)},
		record:  &recordTable{table: make(map[string]*attendance.Record)},
		leave:   &leaveTable{table: make(map[string]*leave.Request)},
		warning: &warningTable{table: make(map[string]*warning.Warning)},
		seq:     &sequenceTable{last: make(map[string]string)},
	}
	return db, nil
}

// nextID allocates the next prefixed identifier; safe for concurrent use.
func (db *DB) nextID(prefix string, width int) string {
	db.seq.Lock()
	defer db.seq.Unlock()
	next := ids.Increment(db.seq.last[prefix], prefix, width)
	db.seq.last[prefix] = next
	return next
}
