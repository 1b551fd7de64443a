package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/topphysics/core"
)

// AnyRevision disables the revision guard of Repository.UpdateWeek.
const AnyRevision int64 = -1

// maxUpdateAttempts bounds the optimistic retries of an implicit-week update.
const maxUpdateAttempts = 3

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("student not found")
	ErrIDExists         = errors.New("a student with this id already exists")
	ErrRevisionMismatch = errors.New("student revision mismatch")
	ErrConcurrentUpdate = errors.New("student was modified concurrently, please retry")
	ErrEmptyPatch       = errors.New("week update sets no field")

	errInvalidWeek   = errors.New("week must be between 1 and 20")
	errInvalidCenter = errors.New("center is required")
)

type (
	Repository interface {
		// CreateStudent inserts s; it fails with ErrIDExists when s.ID is taken.
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryAllStudents(ctx context.Context, ordering ...core.DBOrdering) ([]Student, error)
		GetStudentByID(ctx context.Context, id int) (Student, error)
		// UpdateStudentProfile saves the descriptive fields of s, never its weeks.
		UpdateStudentProfile(ctx context.Context, s Student) (Student, error)
		// UpdateWeek applies patch to exactly one week record and bumps the revision, atomically.
		// When expectedRevision != AnyRevision and the stored revision differs, it fails with ErrRevisionMismatch.
		UpdateWeek(ctx context.Context, id, week int, expectedRevision int64, patch WeekPatch) (WeekRecord, error)
		DeleteStudent(ctx context.Context, id int) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if _, err := core.RequireActor(ctx); err != nil {
		return Student{}, err
	}
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Student{}, err
	}

	now := NowFunc().UTC()
	s := Student{
		ID:           ns.ID,
		Name:         ns.Name,
		Grade:        ns.Grade,
		School:       ns.School,
		Phone:        ns.Phone,
		ParentsPhone: ns.ParentsPhone,
		MainCenter:   ns.MainCenter,
		Age:          ns.Age,
		Weeks:        NewWeeks(),
		Revision:     1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	if _, err := core.RequireActor(ctx); err != nil {
		return Student{}, err
	}
	return svc.repo.GetStudentByID(ctx, id)
}

// QueryAll returns the View of every student.
func (svc *Service) QueryAll(ctx context.Context, ordering ...core.DBOrdering) ([]View, error) {
	if _, err := core.RequireActor(ctx); err != nil {
		return nil, err
	}
	students, err := svc.repo.QueryAllStudents(ctx, ordering...)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return ProjectAll(students), nil
}

// History lists every attended week across all students.
func (svc *Service) History(ctx context.Context) ([]HistoryEntry, error) {
	if _, err := core.RequireActor(ctx); err != nil {
		return nil, err
	}
	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return History(students), nil
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	if _, err := core.RequireActor(ctx); err != nil {
		return Student{}, err
	}
	orig, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}

	ns := us.merge(orig)
	if err = svc.validate.Struct(ns); err != nil {
		return Student{}, err
	}

	orig.Name = ns.Name
	orig.Grade = ns.Grade
	orig.School = ns.School
	orig.Phone = ns.Phone
	orig.ParentsPhone = ns.ParentsPhone
	orig.MainCenter = ns.MainCenter
	orig.Age = ns.Age
	orig.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateStudentProfile(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	if _, err := core.RequireActor(ctx); err != nil {
		return err
	}
	return svc.repo.DeleteStudent(ctx, id)
}

// ApplyAttendance marks a week attended at center. Without an explicit week the current week is used.
// Applying it again overwrites the timestamp and center; it never un-marks attendance.
func (svc *Service) ApplyAttendance(ctx context.Context, id int, center string, at time.Time, week *int) (WeekRecord, error) {
	if _, err := core.RequireActor(ctx); err != nil {
		return WeekRecord{}, err
	}
	center = core.CleanString(center)
	if center == "" {
		return WeekRecord{}, core.NewValidationError(errInvalidCenter, core.FieldError{Field: "center", Error: errInvalidCenter.Error()})
	}
	if at.IsZero() {
		at = NowFunc()
	}
	at = at.UTC()
	attended := true
	return svc.applyWeekPatch(ctx, id, week, WeekPatch{
		Attended:             &attended,
		LastAttendance:       &at,
		LastAttendanceCenter: &center,
	})
}

// ApplyHomework sets the homework status of a week; value must be one of HomeworkStatuses.
func (svc *Service) ApplyHomework(ctx context.Context, id int, value string, week *int) (WeekRecord, error) {
	if _, err := core.RequireActor(ctx); err != nil {
		return WeekRecord{}, err
	}
	hw, err := ParseHomework(value)
	if err != nil {
		return WeekRecord{}, core.NewValidationError(err, core.FieldError{Field: "hwDone", Error: err.Error()})
	}
	return svc.applyWeekPatch(ctx, id, week, WeekPatch{HWDone: &hw})
}

// ApplyQuizGrade stores value verbatim as the quiz grade of a week.
func (svc *Service) ApplyQuizGrade(ctx context.Context, id int, value interface{}, week *int) (WeekRecord, error) {
	return svc.applyWeekPatch(ctx, id, week, WeekPatch{Quiz: &QuizValue{Value: value}})
}

// ApplyMessageState records whether the parents' notification was sent for a week.
func (svc *Service) ApplyMessageState(ctx context.Context, id int, sent bool, week *int) (WeekRecord, error) {
	return svc.applyWeekPatch(ctx, id, week, WeekPatch{MessageState: &sent})
}

// applyWeekPatch writes patch to the explicit week, or to the current week recomputed from a fresh read.
// Current-week writes are guarded by the revision that was read and retried on mismatch.
func (svc *Service) applyWeekPatch(ctx context.Context, id int, week *int, patch WeekPatch) (WeekRecord, error) {
	if _, err := core.RequireActor(ctx); err != nil {
		return WeekRecord{}, err
	}

	if week != nil {
		if !ValidWeek(*week) {
			return WeekRecord{}, core.NewValidationError(errInvalidWeek, core.FieldError{Field: "week", Error: errInvalidWeek.Error()})
		}
		return svc.repo.UpdateWeek(ctx, id, *week, AnyRevision, patch)
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		s, err := svc.repo.GetStudentByID(ctx, id)
		if err != nil {
			return WeekRecord{}, err
		}
		wr, err := svc.repo.UpdateWeek(ctx, id, s.CurrentWeek().Week, s.Revision, patch)
		if errors.Cause(err) == ErrRevisionMismatch {
			continue
		}
		return wr, err
	}
	return WeekRecord{}, ErrConcurrentUpdate
}
