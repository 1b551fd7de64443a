package student

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestStudent() Student {
	return Student{
		ID:           501,
		Name:         "Omar Khaled",
		Grade:        "3rd secondary",
		School:       "El Orman",
		Phone:        "01012345678",
		ParentsPhone: "01112345678",
		MainCenter:   "Dokki",
		Weeks:        NewWeeks(),
	}
}

func TestProject(t *testing.T) {
	t.Run("fresh student", func(t *testing.T) {
		v := Project(newTestStudent())
		if v.AttendedTheSession {
			t.Error("AttendedTheSession = true, want false")
		}
		if v.AttendanceWeek != "week 01" {
			t.Errorf("AttendanceWeek = %q, want %q", v.AttendanceWeek, "week 01")
		}
		if v.HWDone != HomeworkNone {
			t.Errorf("HWDone = %q, want %q", v.HWDone, HomeworkNone)
		}
		if v.MessageState {
			t.Error("MessageState = true, want false")
		}
		if v.Center != "Dokki" {
			t.Errorf("Center = %q, want main center", v.Center)
		}
		if len(v.Weeks) != WeekCount {
			t.Errorf("len(Weeks) = %d, want %d", len(v.Weeks), WeekCount)
		}
	})

	t.Run("attended week", func(t *testing.T) {
		s := newTestStudent()
		at := time.Date(2024, time.March, 5, 16, 30, 0, 0, time.UTC)
		center := "Haram"
		s.Weeks[4] = WeekRecord{
			Week: 5, Attended: true, LastAttendance: &at, LastAttendanceCenter: &center,
			HWDone: HomeworkNotCompleted, QuizDegree: "7/10", MessageState: true,
		}
		v := Project(s)
		if !v.AttendedTheSession || v.AttendanceWeek != "week 05" {
			t.Errorf("Project() current week = %v %q, want attended week 05", v.AttendedTheSession, v.AttendanceWeek)
		}
		if v.Center != center || *v.LastAttendanceCenter != center || !v.LastAttendance.Equal(at) {
			t.Errorf("Project() attendance = %q %v %v", v.Center, v.LastAttendanceCenter, v.LastAttendance)
		}
		if v.HWDone != HomeworkNotCompleted || v.QuizDegree != "7/10" || !v.MessageState {
			t.Errorf("Project() week fields = %q %v %v", v.HWDone, v.QuizDegree, v.MessageState)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		s := newTestStudent()
		a, _ := json.Marshal(Project(s))
		b, _ := json.Marshal(Project(s))
		if string(a) != string(b) {
			t.Errorf("Project() is not deterministic:\n%s\n%s", a, b)
		}
	})

	t.Run("json keys", func(t *testing.T) {
		out, err := json.Marshal(Project(newTestStudent()))
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		var m map[string]interface{}
		_ = json.Unmarshal(out, &m)
		keys := []string{
			"id", "name", "grade", "phone", "parents_phone", "center", "main_center", "attended_the_session",
			"lastAttendance", "lastAttendanceCenter", "attendanceWeek", "hwDone", "quizDegree", "school", "age",
			"message_state", "weeks",
		}
		if len(m) != len(keys) {
			t.Errorf("got %d keys, want %d", len(m), len(keys))
		}
		for _, k := range keys {
			if _, ok := m[k]; !ok {
				t.Errorf("missing key %q", k)
			}
		}
	})
}

func TestProjectWeek(t *testing.T) {
	s := newTestStudent()
	s.Weeks[0].Attended = true
	s.Weeks[6].HWDone = HomeworkNotDone

	v := ProjectWeek(s, 7)
	if v.AttendanceWeek != "week 07" || v.AttendedTheSession || v.HWDone != HomeworkNotDone {
		t.Errorf("ProjectWeek(7) = %q %v %q", v.AttendanceWeek, v.AttendedTheSession, v.HWDone)
	}
	if v := ProjectWeek(s, 42); v.AttendanceWeek != "week 01" {
		t.Errorf("ProjectWeek(42).AttendanceWeek = %q, want current week", v.AttendanceWeek)
	}
}
