package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/assistant"
	"github.com/trezcool/topphysics/core/student"
)

// NewValidator returns a validator with every custom tag and translation of the app registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	assistant.InitValidators(validate, translator)
	return validate, translator
}

// ActorContext returns a context carrying a as the verified caller.
func ActorContext(a assistant.Assistant) context.Context {
	return core.WithActor(context.Background(), a.Actor())
}

// AdminContext returns a context carrying a throwaway admin caller.
func AdminContext() context.Context {
	return core.WithActor(context.Background(), core.Actor{ID: -1, Username: "root", IsAdmin: true})
}

// NewStudent returns valid registration data for id; phones are derived from id so they never collide.
func NewStudent(id int, name string) student.NewStudent {
	return student.NewStudent{
		ID:           id,
		Name:         name,
		Grade:        "3rd secondary",
		School:       "El Orman",
		Phone:        fmt.Sprintf("010%08d", id),
		ParentsPhone: fmt.Sprintf("011%08d", id),
		MainCenter:   "Dokki",
	}
}

// CreateStudent stores a fresh student straight through repo, bypassing the service checks.
func CreateStudent(t *testing.T, repo student.Repository, id int, name string, createdAt ...time.Time) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	ns := NewStudent(id, name)
	s := student.Student{
		ID:           ns.ID,
		Name:         ns.Name,
		Grade:        ns.Grade,
		School:       ns.School,
		Phone:        ns.Phone,
		ParentsPhone: ns.ParentsPhone,
		MainCenter:   ns.MainCenter,
		Weeks:        student.NewWeeks(),
		Revision:     1,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s
}

func CreateAssistant(
	t *testing.T,
	repo assistant.Repository,
	name, uname, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) assistant.Assistant {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	a := assistant.Assistant{
		Name:      name,
		Username:  uname,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := a.SetPassword(pwd); err != nil {
			t.Fatalf("createAssistant() failed: %v", err)
		}
	}
	a, err := repo.CreateAssistant(context.Background(), a)
	if err != nil {
		t.Fatalf("createAssistant() failed: %v", err)
	}
	return a
}
