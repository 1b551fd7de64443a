package tests

import (
	"io"
	"log"
	"os"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/topphysics/apps/api/echo"
	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/assistant"
	"github.com/trezcool/topphysics/core/student"
	"github.com/trezcool/topphysics/services/logger"
	"github.com/trezcool/topphysics/services/whatsapp"
	"github.com/trezcool/topphysics/storage/database/inmem"
	"github.com/trezcool/topphysics/tests"
)

var (
	conf       *core.Config
	db         *inmemdb.DB
	app        *echoapi.Server
	stdRepo    student.Repository
	astRepo    assistant.Repository
	logger     *logsvc.RollbarLogger
	validate   *validator.Validate
	translator ut.Translator
	messenger  = whatsappsvc.NewConsoleService(log.New(io.Discard, "", 0), true /* disableOutput */)
)

func TestMain(m *testing.M) {
	conf = core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	// set up DB & repos
	db = inmemdb.Open()
	stdRepo = inmemdb.NewStudentRepository(db)
	astRepo = inmemdb.NewAssistantRepository(db)

	// set up services
	logger = logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	validate, translator = testutil.NewValidator()

	// set up server
	app = newServer(messenger, logger, validate, translator)

	os.Exit(m.Run())
}
