package inmemdb

import (
	"sync"

	"github.com/trezcool/topphysics/core/assistant"
	"github.com/trezcool/topphysics/core/student"
)

type (
	// DB is a mutex-guarded in-memory document store used by tests and by the "memory://" database URI.
	DB struct {
		student   *studentTable
		assistant *assistantTable
	}

	studentTable struct {
		sync.RWMutex
		table map[int]*student.Student
	}

	assistantTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*assistant.Assistant
	}
)

func Open() *DB {
	return &DB{
		student:   &studentTable{table: make(map[int]*student.Student)},
		assistant: &assistantTable{table: make(map[int]*assistant.Assistant)},
	}
}

// Reset drops every stored document.
func (db *DB) Reset() {
	db.student.Lock()
	db.student.table = make(map[int]*student.Student)
	db.student.Unlock()

	db.assistant.Lock()
	db.assistant.table = make(map[int]*assistant.Assistant)
	db.assistant.pkCount = 0
	db.assistant.Unlock()
}
