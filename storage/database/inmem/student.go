package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

// clone copies s deeply enough that callers never share week records with the table.
func clone(s student.Student) student.Student {
	if s.Weeks != nil {
		weeks := make([]student.WeekRecord, len(s.Weeks))
		copy(weeks, s.Weeks)
		s.Weeks = weeks
	}
	return s
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[s.ID]; ok {
		return student.Student{}, student.ErrIDExists
	}
	stored := clone(s)
	repo.db.table[s.ID] = &stored
	return clone(stored), nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context, ordering ...core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		students = append(students, clone(*s))
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "id", Ascending: true}}
	}
	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareStudents(students[i], students[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func compareStudents(a, b student.Student, field string) int {
	switch field {
	case "id":
		return a.ID - b.ID
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "grade":
		return strings.Compare(a.Grade, b.Grade)
	case "school":
		return strings.Compare(a.School, b.School)
	case "main_center":
		return strings.Compare(a.MainCenter, b.MainCenter)
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return clone(*s), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudentProfile(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	orig.Name = s.Name
	orig.Grade = s.Grade
	orig.School = s.School
	orig.Phone = s.Phone
	orig.ParentsPhone = s.ParentsPhone
	orig.MainCenter = s.MainCenter
	orig.Age = s.Age
	orig.UpdatedAt = s.UpdatedAt
	return clone(*orig), nil
}

func (repo *studentRepository) UpdateWeek(ctx context.Context, id, week int, expectedRevision int64, patch student.WeekPatch) (student.WeekRecord, error) {
	if patch.IsEmpty() {
		return student.WeekRecord{}, student.ErrEmptyPatch
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.table[id]
	if !ok {
		return student.WeekRecord{}, student.ErrNotFound
	}
	if expectedRevision != student.AnyRevision && s.Revision != expectedRevision {
		return student.WeekRecord{}, student.ErrRevisionMismatch
	}
	if len(s.Weeks) != student.WeekCount {
		s.Weeks = student.NormalizeWeeks(s.Weeks)
	}

	wr := &s.Weeks[week-1]
	patch.ApplyTo(wr)
	s.Revision++
	s.UpdatedAt = student.NowFunc().UTC()
	return *wr, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
