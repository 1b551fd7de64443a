package student

import "time"

// View is the flattened student shape served to the dashboard's tables.
// The current-week fields come from Student.CurrentWeek.
type View struct {
	ID                   int            `json:"id"`
	Name                 string         `json:"name"`
	Grade                string         `json:"grade"`
	Phone                string         `json:"phone"`
	ParentsPhone         string         `json:"parents_phone"`
	Center               string         `json:"center"`
	MainCenter           string         `json:"main_center"`
	AttendedTheSession   bool           `json:"attended_the_session"`
	LastAttendance       *time.Time     `json:"lastAttendance"`
	LastAttendanceCenter *string        `json:"lastAttendanceCenter"`
	AttendanceWeek       string         `json:"attendanceWeek"`
	HWDone               HomeworkStatus `json:"hwDone"`
	QuizDegree           interface{}    `json:"quizDegree"`
	School               string         `json:"school"`
	Age                  *int           `json:"age"`
	MessageState         bool           `json:"message_state"`
	Weeks                []WeekRecord   `json:"weeks"`
}

// Project derives the View of s. It is deterministic and has no side effects.
func Project(s Student) View {
	return project(s, s.CurrentWeek())
}

// ProjectWeek derives the View of s as if week were its current week.
// An unknown week falls back to Project.
func ProjectWeek(s Student, week int) View {
	wr, ok := s.Week(week)
	if !ok {
		return Project(s)
	}
	return project(s, wr)
}

func project(s Student, cw WeekRecord) View {
	center := s.MainCenter
	if cw.LastAttendanceCenter != nil && *cw.LastAttendanceCenter != "" {
		center = *cw.LastAttendanceCenter
	}
	weeks := s.Weeks
	if weeks == nil {
		weeks = []WeekRecord{}
	}

	return View{
		ID:                   s.ID,
		Name:                 s.Name,
		Grade:                s.Grade,
		Phone:                s.Phone,
		ParentsPhone:         s.ParentsPhone,
		Center:               center,
		MainCenter:           s.MainCenter,
		AttendedTheSession:   cw.Attended,
		LastAttendance:       cw.LastAttendance,
		LastAttendanceCenter: cw.LastAttendanceCenter,
		AttendanceWeek:       WeekLabel(cw.Week),
		HWDone:               cw.HWDone.OrDefault(),
		QuizDegree:           cw.QuizDegree,
		School:               s.School,
		Age:                  s.Age,
		MessageState:         cw.MessageState,
		Weeks:                weeks,
	}
}

func ProjectAll(students []Student) []View {
	views := make([]View, 0, len(students))
	for _, s := range students {
		views = append(views, Project(s))
	}
	return views
}
