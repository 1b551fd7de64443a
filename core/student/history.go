package student

import (
	"sort"
	"time"
)

// HistoryEntry is one attended week of one student.
type HistoryEntry struct {
	StudentID            int            `json:"student_id"`
	Name                 string         `json:"name"`
	Grade                string         `json:"grade"`
	MainCenter           string         `json:"main_center"`
	Week                 int            `json:"week"`
	AttendanceWeek       string         `json:"attendanceWeek"`
	LastAttendance       *time.Time     `json:"lastAttendance"`
	LastAttendanceCenter *string        `json:"lastAttendanceCenter"`
	HWDone               HomeworkStatus `json:"hwDone"`
	QuizDegree           interface{}    `json:"quizDegree"`
	MessageState         bool           `json:"message_state"`
}

// History lists every attended week of the given students, latest attendance first.
func History(students []Student) []HistoryEntry {
	entries := make([]HistoryEntry, 0)
	for _, s := range students {
		for _, wr := range s.Weeks {
			if !wr.Attended {
				continue
			}
			entries = append(entries, HistoryEntry{
				StudentID:            s.ID,
				Name:                 s.Name,
				Grade:                s.Grade,
				MainCenter:           s.MainCenter,
				Week:                 wr.Week,
				AttendanceWeek:       WeekLabel(wr.Week),
				LastAttendance:       wr.LastAttendance,
				LastAttendanceCenter: wr.LastAttendanceCenter,
				HWDone:               wr.HWDone.OrDefault(),
				QuizDegree:           wr.QuizDegree,
				MessageState:         wr.MessageState,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].LastAttendance, entries[j].LastAttendance
		switch {
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.After(*tj)
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		}
		if entries[i].StudentID != entries[j].StudentID {
			return entries[i].StudentID < entries[j].StudentID
		}
		return entries[i].Week < entries[j].Week
	})
	return entries
}
