package mongodb

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/trezcool/topphysics/core/student"
)

type (
	// weekDoc is the stored shape of a student.WeekRecord.
	weekDoc struct {
		Week                 int                    `bson:"week"`
		Attended             bool                   `bson:"attended"`
		LastAttendance       *time.Time             `bson:"lastAttendance"`
		LastAttendanceCenter *string                `bson:"lastAttendanceCenter"`
		HWDone               student.HomeworkStatus `bson:"hwDone"`
		QuizDegree           interface{}            `bson:"quizDegree"`
		MessageState         bool                   `bson:"message_state"`
	}

	studentDoc struct {
		ID           int       `bson:"id"`
		Name         string    `bson:"name"`
		Grade        string    `bson:"grade"`
		School       string    `bson:"school"`
		Phone        string    `bson:"phone"`
		ParentsPhone string    `bson:"parents_phone"`
		MainCenter   string    `bson:"main_center"`
		Age          *int      `bson:"age"`
		Weeks        []weekDoc `bson:"weeks"`
		Revision     int64     `bson:"revision"`
		CreatedAt    time.Time `bson:"created_at"`
		UpdatedAt    time.Time `bson:"updated_at"`
	}

	// rawWeekDoc keeps the fields whose stored shape changed over time undecoded.
	rawWeekDoc struct {
		Week                 int           `bson:"week"`
		Attended             bool          `bson:"attended"`
		LastAttendance       bson.RawValue `bson:"lastAttendance"`
		LastAttendanceCenter *string       `bson:"lastAttendanceCenter"`
		HWDone               bson.RawValue `bson:"hwDone"`
		QuizDegree           bson.RawValue `bson:"quizDegree"`
		MessageState         bool          `bson:"message_state"`
	}

	rawStudentDoc struct {
		ID           int           `bson:"id"`
		Name         string        `bson:"name"`
		Grade        string        `bson:"grade"`
		School       string        `bson:"school"`
		Phone        string        `bson:"phone"`
		ParentsPhone string        `bson:"parents_phone"`
		LegacyPhone  string        `bson:"parentsPhone"`
		MainCenter   string        `bson:"main_center"`
		Age          bson.RawValue `bson:"age"`
		Weeks        []rawWeekDoc  `bson:"weeks"`
		Revision     int64         `bson:"revision"`
		CreatedAt    time.Time     `bson:"created_at"`
		UpdatedAt    time.Time     `bson:"updated_at"`
	}
)

func toStudentDoc(s student.Student) studentDoc {
	weeks := make([]weekDoc, 0, len(s.Weeks))
	for _, wr := range s.Weeks {
		weeks = append(weeks, weekDoc{
			Week:                 wr.Week,
			Attended:             wr.Attended,
			LastAttendance:       wr.LastAttendance,
			LastAttendanceCenter: wr.LastAttendanceCenter,
			HWDone:               wr.HWDone.OrDefault(),
			QuizDegree:           wr.QuizDegree,
			MessageState:         wr.MessageState,
		})
	}
	return studentDoc{
		ID:           s.ID,
		Name:         s.Name,
		Grade:        s.Grade,
		School:       s.School,
		Phone:        s.Phone,
		ParentsPhone: s.ParentsPhone,
		MainCenter:   s.MainCenter,
		Age:          s.Age,
		Weeks:        weeks,
		Revision:     s.Revision,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// decodeStudent converts a stored document, whatever its generation, into a student.Student
// holding exactly student.WeekCount normalized week records.
func decodeStudent(doc rawStudentDoc) student.Student {
	weeks := make([]student.WeekRecord, 0, len(doc.Weeks))
	for _, w := range doc.Weeks {
		weeks = append(weeks, student.WeekRecord{
			Week:                 w.Week,
			Attended:             w.Attended,
			LastAttendance:       decodeTime(w.LastAttendance),
			LastAttendanceCenter: w.LastAttendanceCenter,
			HWDone:               decodeHomework(w.HWDone),
			QuizDegree:           decodeOpaque(w.QuizDegree),
			MessageState:         w.MessageState,
		})
	}
	parentsPhone := doc.ParentsPhone
	if parentsPhone == "" {
		parentsPhone = doc.LegacyPhone
	}
	return student.Student{
		ID:           doc.ID,
		Name:         doc.Name,
		Grade:        doc.Grade,
		School:       doc.School,
		Phone:        doc.Phone,
		ParentsPhone: parentsPhone,
		MainCenter:   doc.MainCenter,
		Age:          decodeAge(doc.Age),
		Weeks:        student.NormalizeWeeks(weeks),
		Revision:     doc.Revision,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// decodeHomework reads every stored homework shape: booleans, legacy and current strings, null or absent.
func decodeHomework(raw bson.RawValue) student.HomeworkStatus {
	switch raw.Type {
	case bsontype.Boolean:
		return student.NormalizeLegacyHomework(raw.Boolean())
	case bsontype.String:
		return student.NormalizeLegacyHomework(raw.StringValue())
	default:
		return student.HomeworkNone
	}
}

// decodeTime reads BSON dates and the ISO strings older dashboards stored.
func decodeTime(raw bson.RawValue) *time.Time {
	switch raw.Type {
	case bsontype.DateTime:
		t := raw.Time().UTC()
		return &t
	case bsontype.String:
		if t, err := time.Parse(time.RFC3339, raw.StringValue()); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func decodeOpaque(raw bson.RawValue) interface{} {
	switch raw.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return nil
	case bsontype.String:
		return raw.StringValue()
	case bsontype.Int32:
		return int(raw.Int32())
	case bsontype.Int64:
		return raw.Int64()
	case bsontype.Double:
		return raw.Double()
	}
	var v interface{}
	if err := raw.Unmarshal(&v); err != nil {
		return nil
	}
	return v
}

func decodeAge(raw bson.RawValue) *int {
	var age int
	switch raw.Type {
	case bsontype.Int32:
		age = int(raw.Int32())
	case bsontype.Int64:
		age = int(raw.Int64())
	case bsontype.Double:
		age = int(raw.Double())
	case bsontype.String:
		n, err := strconv.Atoi(strings.TrimSpace(raw.StringValue()))
		if err != nil {
			return nil
		}
		age = n
	default:
		return nil
	}
	return &age
}
