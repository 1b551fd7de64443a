package tests

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/assistant"
	"github.com/trezcool/topphysics/core/student"
	"github.com/trezcool/topphysics/tests"
)

type failingMessenger struct{}

func (failingMessenger) Send(ctx context.Context, msg core.Message) error {
	return errors.New("gateway unreachable")
}

func invalidated(id int) string {
	return fmt.Sprintf("students:detail:%d, students:list, students:history", id)
}

func cacheControl() string {
	return fmt.Sprintf("private, max-age=%d", int(conf.Server.CacheMaxAge.Seconds()))
}

func studentPath(id int, suffix ...string) string {
	p := "/api/students/" + strconv.Itoa(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func Test_studentApi_auth(t *testing.T) {
	db.Reset()
	testutil.CreateStudent(t, stdRepo, 1, "Ahmed Ali")

	for _, path := range []string{"/api/students", "/api/students/history", studentPath(1), studentPath(1, "qr")} {
		t.Run(path, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
		})
	}
}

func Test_studentApi_create(t *testing.T) {
	db.Reset()

	mona := testutil.CreateAssistant(t, astRepo, "Mona", "mona", pwd, assistant.RoleAssistant, true)
	token := getToken(t, mona)

	t.Run("success", func(t *testing.T) {
		body := []byte(`{"id": 7, "name": " Ahmed  Ali ", "grade": "3rd secondary", "school": "El Orman",
			"phone": "01000000007", "parents_phone": "01100000007", "main_center": "Dokki", "age": "17"}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/students", token, body)
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{wantCode: http.StatusCreated, wantData: []byte(`{"id": 7}`)}, rec)
		assert.Equal(t, invalidated(7), rec.Header().Get("X-Invalidate"))

		s := mustGetStudent(t, 7)
		assert.Equal(t, "Ahmed Ali", s.Name)
		require.NotNil(t, s.Age)
		assert.Equal(t, 17, *s.Age)
		require.Len(t, s.Weeks, student.WeekCount)
		for i, wr := range s.Weeks {
			assert.Equal(t, i+1, wr.Week)
			assert.False(t, wr.Attended)
		}
	})

	t.Run("id as string", func(t *testing.T) {
		body := marchallObj(t, testutil.NewStudent(8, "Omar"))
		body = bytes.Replace(body, []byte(`"id":8`), []byte(`"id":"8"`), 1)
		req, rec := newAuthRequest(http.MethodPost, "/api/students", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusCreated, wantData: []byte(`{"id": 8}`)}, rec)
	})

	runHTTPTests(t, []httpTest{
		{
			name:     "duplicate id",
			method:   http.MethodPost,
			path:     "/api/students",
			token:    token,
			body:     marchallObj(t, testutil.NewStudent(7, "Someone Else")),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: student.ErrIDExists.Error()}),
		},
		{
			name:     "non numeric id",
			method:   http.MethodPost,
			path:     "/api/students",
			token:    token,
			body:     []byte(`{"id": "seven", "name": "X"}`),
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("same phones", func(t *testing.T) {
		ns := testutil.NewStudent(9, "Youssef")
		ns.ParentsPhone = ns.Phone
		req, rec := newAuthRequest(http.MethodPost, "/api/students", token, marchallObj(t, ns))
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"parents_phone"`)
		assert.Empty(t, rec.Header().Get("X-Invalidate"))
	})
}

func Test_studentApi_read(t *testing.T) {
	db.Reset()

	mona := testutil.CreateAssistant(t, astRepo, "Mona", "mona", pwd, assistant.RoleAssistant, true)
	token := getToken(t, mona)

	s1 := testutil.CreateStudent(t, stdRepo, 2, "Zeina")
	s2 := testutil.CreateStudent(t, stdRepo, 1, "Adam")
	ctx := testutil.ActorContext(mona)
	at := time.Date(2023, 3, 4, 17, 30, 0, 0, time.UTC)
	svc := student.NewService(stdRepo, validate)
	_, err := svc.ApplyAttendance(ctx, s1.ID, "Haram", at, nil)
	require.NoError(t, err)
	s1 = mustGetStudent(t, s1.ID)

	tests := []httpTest{
		{
			name:     "list",
			method:   http.MethodGet,
			path:     "/api/students",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallList(t, student.Project(s2), student.Project(s1)),
		},
		{
			name:     "list ordered by name descending",
			method:   http.MethodGet,
			path:     "/api/students?ordering=-name",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallList(t, student.Project(s1), student.Project(s2)),
		},
		{
			name:     "history",
			method:   http.MethodGet,
			path:     "/api/students/history",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, student.History([]student.Student{s2, s1})),
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     studentPath(s1.ID),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, student.Project(s1)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			assert.Equal(t, cacheControl(), rec.Header().Get("Cache-Control"))
		})
	}

	t.Run("retrieve unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, studentPath(404), token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
		assert.Empty(t, rec.Header().Get("Cache-Control"))
	})

	t.Run("qr code", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, studentPath(s1.ID, "qr"), token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("view of current week", func(t *testing.T) {
		v := student.Project(s1)
		assert.True(t, v.AttendedTheSession)
		assert.Equal(t, "week 01", v.AttendanceWeek)
		assert.Equal(t, "Haram", v.Center)
	})
}

func Test_studentApi_updateAndDelete(t *testing.T) {
	db.Reset()

	mona := testutil.CreateAssistant(t, astRepo, "Mona", "mona", pwd, assistant.RoleAssistant, true)
	token := getToken(t, mona)
	orig := testutil.CreateStudent(t, stdRepo, 3, "Layla")

	t.Run("update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, studentPath(orig.ID), token, []byte(`{"name": "Layla Hassan", "age": 16}`))
		app.ServeHTTP(rec, req)

		s := mustGetStudent(t, orig.ID)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, student.Project(s))}, rec)
		assert.Equal(t, invalidated(orig.ID), rec.Header().Get("X-Invalidate"))
		assert.Equal(t, "Layla Hassan", s.Name)
		assert.Equal(t, orig.Phone, s.Phone)
		assert.Equal(t, orig.Weeks, s.Weeks)
	})

	runHTTPTests(t, []httpTest{
		{
			name:     "update unknown",
			method:   http.MethodPut,
			path:     studentPath(404),
			token:    token,
			body:     []byte(`{"name": "Nobody"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     studentPath(orig.ID),
			token:    token,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "retrieve deleted",
			method:   http.MethodGet,
			path:     studentPath(orig.ID),
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name:     "delete again",
			method:   http.MethodDelete,
			path:     studentPath(orig.ID),
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
	})
}

func Test_studentApi_weekUpdates(t *testing.T) {
	db.Reset()

	mona := testutil.CreateAssistant(t, astRepo, "Mona", "mona", pwd, assistant.RoleAssistant, true)
	token := getToken(t, mona)
	s := testutil.CreateStudent(t, stdRepo, 5, "Nour")

	post := func(t *testing.T, op, body string) (int, student.Student) {
		req, rec := newAuthRequest(http.MethodPost, studentPath(s.ID, op), token, []byte(body))
		app.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			assert.Equal(t, invalidated(s.ID), rec.Header().Get("X-Invalidate"))
		} else {
			assert.Empty(t, rec.Header().Get("X-Invalidate"))
		}
		return rec.Code, mustGetStudent(t, s.ID)
	}

	t.Run("attend current week", func(t *testing.T) {
		code, got := post(t, "attend", `{"center": "Dokki", "timestamp": "2023-03-04T17:30:00+02:00"}`)
		require.Equal(t, http.StatusOK, code)
		wr := got.Weeks[0]
		assert.True(t, wr.Attended)
		require.NotNil(t, wr.LastAttendance)
		assert.Equal(t, time.Date(2023, 3, 4, 15, 30, 0, 0, time.UTC), *wr.LastAttendance)
		require.NotNil(t, wr.LastAttendanceCenter)
		assert.Equal(t, "Dokki", *wr.LastAttendanceCenter)
	})

	t.Run("attend explicit week keeps the current week", func(t *testing.T) {
		code, got := post(t, "attend", `{"center": "Haram", "week": 3}`)
		require.Equal(t, http.StatusOK, code)
		assert.True(t, got.Weeks[2].Attended)
		assert.Equal(t, "week 01", student.Project(got).AttendanceWeek)
	})

	t.Run("attend without center", func(t *testing.T) {
		code, _ := post(t, "attend", `{"center": "  "}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("homework", func(t *testing.T) {
		code, got := post(t, "hw", `{"hwDone": "Not Completed"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, student.HomeworkNotCompleted, got.Weeks[0].HWDone)
	})

	t.Run("homework rejects unknown statuses and booleans", func(t *testing.T) {
		for _, body := range []string{`{"hwDone": "Maybe"}`, `{"hwDone": true}`, `{}`} {
			code, got := post(t, "hw", body)
			assert.Equal(t, http.StatusBadRequest, code, body)
			assert.Equal(t, student.HomeworkNotCompleted, got.Weeks[0].HWDone)
		}
	})

	t.Run("quiz grade is stored verbatim", func(t *testing.T) {
		code, got := post(t, "quiz_degree", `{"quizDegree": "8/10"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "8/10", got.Weeks[0].QuizDegree)

		code, got = post(t, "quiz_degree", `{"quizDegree": 9, "week": "3"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(9), got.Weeks[2].QuizDegree)
		assert.Equal(t, "8/10", got.Weeks[0].QuizDegree)
	})

	t.Run("message state", func(t *testing.T) {
		code, got := post(t, "message_state", `{"message_state": true, "week": 2}`)
		require.Equal(t, http.StatusOK, code)
		assert.True(t, got.Weeks[1].MessageState)
		assert.False(t, got.Weeks[0].MessageState)

		code, _ = post(t, "message_state", `{}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("week out of range", func(t *testing.T) {
		for _, week := range []string{"0", "21", "-1"} {
			code, _ := post(t, "hw", `{"hwDone": "Done", "week": `+week+`}`)
			assert.Equal(t, http.StatusBadRequest, code, week)
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, studentPath(404, "hw"), token, []byte(`{"hwDone": "Done"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})
}

func Test_studentApi_sendWhatsApp(t *testing.T) {
	db.Reset()
	messenger.Reset()

	mona := testutil.CreateAssistant(t, astRepo, "Mona", "mona", pwd, assistant.RoleAssistant, true)
	token := getToken(t, mona)
	s := testutil.CreateStudent(t, stdRepo, 6, "Salma")

	t.Run("current week", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, studentPath(s.ID, "send-whatsapp"), token, []byte(`{}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, invalidated(s.ID), rec.Header().Get("X-Invalidate"))

		sent := messenger.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, s.ParentsPhone, sent[0].To)
		assert.Contains(t, sent[0].Body, "Salma")
		assert.Contains(t, sent[0].Body, "week 01")
		assert.True(t, mustGetStudent(t, s.ID).Weeks[0].MessageState)
	})

	t.Run("explicit week", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, studentPath(s.ID, "send-whatsapp"), token, []byte(`{"week": 4}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		sent := messenger.Sent()
		require.Len(t, sent, 2)
		assert.Contains(t, sent[1].Body, "week 04")
		assert.True(t, mustGetStudent(t, s.ID).Weeks[3].MessageState)
	})

	t.Run("gateway failure leaves the week untouched", func(t *testing.T) {
		failing := newServer(failingMessenger{}, logger, validate, translator)
		req, rec := newAuthRequest(http.MethodPost, studentPath(s.ID, "send-whatsapp"), token, []byte(`{"week": 5}`))
		failing.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Invalidate"))
		assert.False(t, mustGetStudent(t, s.ID).Weeks[4].MessageState)
	})
}
