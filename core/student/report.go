package student

import (
	"fmt"
	"strings"
)

// ParentReport renders the WhatsApp message sent to a student's parents about the current week.
func ParentReport(v View) string {
	b := new(strings.Builder)
	_, _ = fmt.Fprintf(b, "Dear parent of %s,\n", v.Name)
	_, _ = fmt.Fprintf(b, "Report for %s:\n", v.AttendanceWeek)

	if v.AttendedTheSession {
		center := v.MainCenter
		if v.LastAttendanceCenter != nil {
			center = *v.LastAttendanceCenter
		}
		when := ""
		if v.LastAttendance != nil {
			when = " on " + v.LastAttendance.Format("02/01/2006 15:04")
		}
		_, _ = fmt.Fprintf(b, "- Attendance: attended at %s%s\n", center, when)
	} else {
		_, _ = fmt.Fprint(b, "- Attendance: absent\n")
	}
	_, _ = fmt.Fprintf(b, "- Homework: %s\n", v.HWDone.OrDefault())

	quiz := "0/0"
	if v.QuizDegree != nil && fmt.Sprint(v.QuizDegree) != "" {
		quiz = fmt.Sprint(v.QuizDegree)
	}
	_, _ = fmt.Fprintf(b, "- Quiz: %s\n", quiz)
	return b.String()
}
