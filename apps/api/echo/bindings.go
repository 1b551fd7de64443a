package echoapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/student"
)

var (
	orderingParam = "ordering"

	errNotAnInteger = errors.New("must be an integer")
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// flexInt accepts both JSON numbers and numeric strings; dashboards send ids and weeks either way.
type flexInt int

func (fi *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*fi = 0
			return nil
		}
		data = []byte(s)
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return errNotAnInteger
	}
	*fi = flexInt(n)
	return nil
}

func (fi *flexInt) intPtr() *int {
	if fi == nil {
		return nil
	}
	n := int(*fi)
	return &n
}

// paramID reads the :id path param; anything but an integer cannot name a record.
func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

type (
	createStudentRequest struct {
		ID           flexInt  `json:"id"`
		Name         string   `json:"name"`
		Grade        string   `json:"grade"`
		School       string   `json:"school"`
		Phone        string   `json:"phone"`
		ParentsPhone string   `json:"parents_phone"`
		MainCenter   string   `json:"main_center"`
		Age          *flexInt `json:"age"`
	}

	updateStudentRequest struct {
		Name         string   `json:"name"`
		Grade        string   `json:"grade"`
		School       string   `json:"school"`
		Phone        string   `json:"phone"`
		ParentsPhone string   `json:"parents_phone"`
		MainCenter   string   `json:"main_center"`
		Age          *flexInt `json:"age"`
	}

	attendRequest struct {
		Center    string     `json:"center"`
		Timestamp *time.Time `json:"timestamp"`
		Week      *flexInt   `json:"week"`
	}

	homeworkRequest struct {
		HWDone interface{} `json:"hwDone"`
		Week   *flexInt    `json:"week"`
	}

	quizRequest struct {
		QuizDegree interface{} `json:"quizDegree"`
		Week       *flexInt    `json:"week"`
	}

	messageStateRequest struct {
		MessageState *bool   `json:"message_state"`
		Week         *flexInt `json:"week"`
	}

	sendWhatsAppRequest struct {
		Week *flexInt `json:"week"`
	}

	createdResponse struct {
		ID int `json:"id"`
	}

	weekResponse struct {
		StudentID int `json:"id"`
		student.WeekRecord
	}
)

func (r createStudentRequest) toNewStudent() student.NewStudent {
	return student.NewStudent{
		ID:           int(r.ID),
		Name:         r.Name,
		Grade:        r.Grade,
		School:       r.School,
		Phone:        r.Phone,
		ParentsPhone: r.ParentsPhone,
		MainCenter:   r.MainCenter,
		Age:          r.Age.intPtr(),
	}
}

func (r updateStudentRequest) toUpdateStudent() student.UpdateStudent {
	return student.UpdateStudent{
		Name:         r.Name,
		Grade:        r.Grade,
		School:       r.School,
		Phone:        r.Phone,
		ParentsPhone: r.ParentsPhone,
		MainCenter:   r.MainCenter,
		Age:          r.Age.intPtr(),
	}
}

func (r attendRequest) timestamp() time.Time {
	if r.Timestamp == nil {
		return time.Time{}
	}
	return *r.Timestamp
}

// homework returns the submitted status; anything but a string is rejected by student.ParseHomework.
func (r homeworkRequest) homework() string {
	if s, ok := r.HWDone.(string); ok {
		return s
	}
	return ""
}
