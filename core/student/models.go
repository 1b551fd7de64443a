package student

import (
	"strings"
	"time"

	"github.com/trezcool/topphysics/core"
)

// WeekCount is the fixed number of week records every student owns.
const WeekCount = 20

// WeekRecord tracks one week's attendance, homework, quiz and parent notification.
type WeekRecord struct {
	Week                 int            `json:"week"`
	Attended             bool           `json:"attended"`
	LastAttendance       *time.Time     `json:"lastAttendance"`       // UTC
	LastAttendanceCenter *string        `json:"lastAttendanceCenter"` //
	HWDone               HomeworkStatus `json:"hwDone"`
	QuizDegree           interface{}    `json:"quizDegree"` // opaque "scored/total" string or number
	MessageState         bool           `json:"message_state"`
}

type Student struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Grade        string       `json:"grade"`
	School       string       `json:"school"`
	Phone        string       `json:"phone"`
	ParentsPhone string       `json:"parents_phone"`
	MainCenter   string       `json:"main_center"`
	Age          *int         `json:"age"`
	Weeks        []WeekRecord `json:"weeks"`
	Revision     int64        `json:"-"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
}

// NewWeeks returns the zero state of a student's week records: weeks 1..WeekCount, all unattended.
func NewWeeks() []WeekRecord {
	weeks := make([]WeekRecord, WeekCount)
	for i := range weeks {
		weeks[i] = WeekRecord{Week: i + 1, HWDone: HomeworkNone}
	}
	return weeks
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	ID           int    `json:"id" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required,notblank"`
	Grade        string `json:"grade" validate:"required,notblank"`
	School       string `json:"school" validate:"required,notblank"`
	Phone        string `json:"phone" validate:"required,phone11"`
	ParentsPhone string `json:"parents_phone" validate:"required,phone11,nefield=Phone"`
	MainCenter   string `json:"main_center" validate:"required,notblank"`
	Age          *int   `json:"age" validate:"omitempty,min=5,max=100"`
}

// Clean normalizes user input the way the dashboard always stored it.
func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Grade = cleanGrade(ns.Grade)
	ns.School = core.CleanString(ns.School)
	ns.Phone = core.CleanString(ns.Phone)
	ns.ParentsPhone = core.CleanString(ns.ParentsPhone)
	ns.MainCenter = core.CleanString(ns.MainCenter)
}

// UpdateStudent defines what information may be provided to modify a Student's profile.
// Empty fields keep their stored value; the id and the weeks are never modified.
type UpdateStudent struct {
	Name         string `json:"name"`
	Grade        string `json:"grade"`
	School       string `json:"school"`
	Phone        string `json:"phone"`
	ParentsPhone string `json:"parents_phone"`
	MainCenter   string `json:"main_center"`
	Age          *int   `json:"age"`
}

// merge returns the profile resulting from applying us on orig.
func (us UpdateStudent) merge(orig Student) NewStudent {
	pick := func(s, fallback string) string {
		if s = core.CleanString(s); s != "" {
			return s
		}
		return fallback
	}
	ns := NewStudent{
		ID:           orig.ID,
		Name:         pick(us.Name, orig.Name),
		Grade:        pick(us.Grade, orig.Grade),
		School:       pick(us.School, orig.School),
		Phone:        pick(us.Phone, orig.Phone),
		ParentsPhone: pick(us.ParentsPhone, orig.ParentsPhone),
		MainCenter:   pick(us.MainCenter, orig.MainCenter),
		Age:          orig.Age,
	}
	if us.Age != nil {
		ns.Age = us.Age
	}
	ns.Clean()
	return ns
}

// QuizValue wraps an opaque quiz grade so that a patch can set it to null.
type QuizValue struct {
	Value interface{}
}

// WeekPatch lists the WeekRecord fields a single update sets; nil fields are left untouched.
type WeekPatch struct {
	Attended             *bool
	LastAttendance       *time.Time
	LastAttendanceCenter *string
	HWDone               *HomeworkStatus
	Quiz                 *QuizValue
	MessageState         *bool
}

// ApplyTo mutates wr in place.
func (p WeekPatch) ApplyTo(wr *WeekRecord) {
	if p.Attended != nil {
		wr.Attended = *p.Attended
	}
	if p.LastAttendance != nil {
		t := p.LastAttendance.UTC()
		wr.LastAttendance = &t
	}
	if p.LastAttendanceCenter != nil {
		center := *p.LastAttendanceCenter
		wr.LastAttendanceCenter = &center
	}
	if p.HWDone != nil {
		wr.HWDone = *p.HWDone
	}
	if p.Quiz != nil {
		wr.QuizDegree = p.Quiz.Value
	}
	if p.MessageState != nil {
		wr.MessageState = *p.MessageState
	}
}

// IsEmpty reports whether p sets no field; stores reject empty patches with ErrEmptyPatch.
func (p WeekPatch) IsEmpty() bool {
	return p.Attended == nil && p.LastAttendance == nil && p.LastAttendanceCenter == nil &&
		p.HWDone == nil && p.Quiz == nil && p.MessageState == nil
}

func cleanGrade(grade string) string {
	return strings.ReplaceAll(core.CleanString(grade, true /* lower */), ".", "")
}
