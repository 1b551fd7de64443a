package storage

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/services/logger"
	"github.com/trezcool/topphysics/tests"
)

func TestOpenInMemory(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{URI: "memory://"}}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)

	st, err := Open(context.Background(), conf, logger, true)
	require.NoError(t, err)
	assert.Nil(t, st.DB)

	s := testutil.CreateStudent(t, st.Students, 1, "Ahmed")
	got, err := st.Students.GetStudentByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Name, got.Name)

	assert.NoError(t, st.Close(context.Background()))
}
