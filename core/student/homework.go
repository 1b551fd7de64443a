package student

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// HomeworkStatus is the homework state of a single week.
type HomeworkStatus string

const (
	HomeworkDone         HomeworkStatus = "Done"
	HomeworkNotCompleted HomeworkStatus = "Not Completed"
	HomeworkNotDone      HomeworkStatus = "Not Done"
	HomeworkNone         HomeworkStatus = "No Homework"

	// legacy spelling sent by older dashboards
	legacyNotComplete = "Not Complete"
)

var (
	HomeworkStatuses = []HomeworkStatus{HomeworkDone, HomeworkNotCompleted, HomeworkNotDone, HomeworkNone}

	ErrInvalidHomework = errors.New("homework status must be one of: Done, Not Completed, Not Done, No Homework")
)

// ParseHomework accepts exactly one of the enumerated statuses.
func ParseHomework(s string) (HomeworkStatus, error) {
	hw := HomeworkStatus(strings.TrimSpace(s))
	if !hw.Valid() {
		return "", ErrInvalidHomework
	}
	return hw, nil
}

func (hw HomeworkStatus) Valid() bool {
	for _, status := range HomeworkStatuses {
		if hw == status {
			return true
		}
	}
	return false
}

// OrDefault maps the zero value to HomeworkNone.
func (hw HomeworkStatus) OrDefault() HomeworkStatus {
	if hw == "" {
		return HomeworkNone
	}
	return hw
}

func (hw HomeworkStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(hw.OrDefault()))
}

// NormalizeLegacyHomework maps a raw stored homework value to a HomeworkStatus:
// true -> Done, false -> Not Done, null/absent -> No Homework.
// Unknown strings are read as Not Done, which is how dashboards have always displayed them.
func NormalizeLegacyHomework(raw interface{}) HomeworkStatus {
	switch v := raw.(type) {
	case nil:
		return HomeworkNone
	case bool:
		if v {
			return HomeworkDone
		}
		return HomeworkNotDone
	case HomeworkStatus:
		return NormalizeLegacyHomework(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return HomeworkNone
		}
		if s == legacyNotComplete {
			return HomeworkNotCompleted
		}
		if hw := HomeworkStatus(s); hw.Valid() {
			return hw
		}
		return HomeworkNotDone
	default:
		return HomeworkNone
	}
}
