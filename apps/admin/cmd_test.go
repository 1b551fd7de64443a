package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/topphysics/core/assistant"
	"github.com/trezcool/topphysics/storage/database"
	"github.com/trezcool/topphysics/storage/database/inmem"
	"github.com/trezcool/topphysics/tests"
)

const pwd = "Kinetic-Energy9"

var astRepo assistant.Repository

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	// set up DB & repos
	astRepo = inmemdb.NewAssistantRepository(inmemdb.Open())
	validate, translator := testutil.NewValidator()

	// start CLI
	out := new(bytes.Buffer)
	return &commandLine{
		astSvc:     assistant.NewService(astRepo, validate),
		translator: translator,
		out:        out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if pwd, ok := tt.extra.(string); ok {
				return []byte(pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case err == nil:
				if tt.wantErr != nil || tt.wantErrStr != "" {
					t.Errorf("cli.run() error = nil, want an error")
				} else if check != nil {
					check(t, tt)
				}
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			default:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}, nil)
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _ := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "mona"}, wantErr: errHelp},
		{name: "weak password", args: []string{"adduser", "-username", "mona"}, extra: "12345678", wantErrStr: "password"},
		{name: "create admin", args: []string{"adduser", "-username", "Mona", "-name", "Mona Adel", "-admin"}, extra: pwd},
	}, func(t *testing.T, tt cliTest) {
		a, err := astRepo.GetAssistantByUsername(context.Background(), "mona")
		if err != nil {
			t.Fatalf("GetAssistantByUsername() failed, %v", err)
		}
		if a.Name != "Mona Adel" || !a.IsAdmin() || !a.IsActive {
			t.Errorf("adduser created %+v", a)
		}
		if a.CheckPassword(pwd) != nil {
			t.Error("password not set")
		}
	})

	// an existing assistant is reactivated with the new password
	mona, _ := astRepo.GetAssistantByUsername(context.Background(), "mona")
	mona.IsActive = false
	if _, err := astRepo.UpdateAssistant(context.Background(), mona); err != nil {
		t.Fatalf("UpdateAssistant() failed, %v", err)
	}
	newPwd := "Momentum-Physics4"

	runCLITests(t, cli, []cliTest{
		{name: "reactivate", args: []string{"adduser", "-username", "mona"}, extra: newPwd},
	}, func(t *testing.T, tt cliTest) {
		a, err := astRepo.GetAssistantByID(context.Background(), mona.ID)
		if err != nil {
			t.Fatalf("GetAssistantByID() failed, %v", err)
		}
		if !a.IsActive || a.IsAdmin() || a.CheckPassword(newPwd) != nil {
			t.Errorf("adduser did not reactivate %+v", a)
		}
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)

	usr := testutil.CreateAssistant(t, astRepo, "Mona", "mona", pwd, assistant.RoleAssistant, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "assistant not found", args: []string{"resetpassword", "-username", "lol"}, extra: "lol", wantErr: assistant.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-username", "MONA"}, extra: "Electric-Field7"},
	}, func(t *testing.T, tt cliTest) {
		refreshed, err := astRepo.GetAssistantByID(context.Background(), usr.ID)
		if err != nil {
			t.Fatalf("GetAssistantByID() failed, %v", err)
		}
		if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) {
			t.Error("failed to update new password")
		}
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "in-memory store", args: []string{"migrate"}, wantErr: errNoDatabase},
		{name: "normalize in-memory store", args: []string{"normalize"}, wantErr: errNoDatabase},
	}, nil)

	cli.db = new(mongo.Database)
	appliedAt := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	var ran []int

	migrateUpFunc = func(ctx context.Context, db *mongo.Database) ([]int, error) {
		return []int{1}, nil
	}
	migrateStatusFunc = func(ctx context.Context, db *mongo.Database) ([]database.MigrationStatus, error) {
		return []database.MigrationStatus{
			{Migration: database.Migration{Version: 1, Description: "normalize students"}, AppliedAt: &appliedAt},
		}, nil
	}
	migrateRunFunc = func(ctx context.Context, db *mongo.Database, m database.Migration) error {
		ran = append(ran, m.Version)
		return nil
	}
	defer func() {
		migrateUpFunc = database.Migrate
		migrateStatusFunc = database.Status
		migrateRunFunc = database.Run
	}()

	runCLITests(t, cli, []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up by default", args: []string{"migrate"}},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "normalize", args: []string{"normalize"}},
	}, nil)

	if got := out.String(); !strings.Contains(got, "applied 1") || !strings.Contains(got, "2023-01-02 03:04:05") {
		t.Errorf("unexpected output %q", got)
	}
	if len(ran) != 1 || ran[0] != 1 {
		t.Errorf("normalize ran %v, want [1]", ran)
	}
}
