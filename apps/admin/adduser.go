package main

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/assistant"
)

// cliActor is the caller recorded for the changes made from the command line.
var cliActor = core.Actor{ID: -1, Username: "admin-cli", IsAdmin: true}

// addUser updates or creates an active assistant.Assistant
func (cli *commandLine) addUser(uname, name, pwd string, isAdmin bool) error {
	ctx := core.WithActor(context.Background(), cliActor)
	if name == "" {
		name = uname
	}
	role := assistant.RoleAssistant
	if isAdmin {
		role = assistant.RoleAdmin
	}

	a, err := cli.astSvc.GetByUsername(ctx, uname)
	switch {
	case err == nil:
		active := true
		_, err = cli.astSvc.Update(ctx, a.ID, assistant.UpdateAssistant{
			Role:            role,
			IsActive:        &active,
			Password:        pwd,
			PasswordConfirm: pwd,
		})
	case errors.Cause(err) == assistant.ErrNotFound:
		_, err = cli.astSvc.Bootstrap(ctx, assistant.NewAssistant{
			Name:            name,
			Username:        uname,
			Role:            role,
			Password:        pwd,
			PasswordConfirm: pwd,
		})
	}
	return cli.explain(err)
}

// explain flattens validation errors into a readable message.
func (cli *commandLine) explain(err error) error {
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(vErrs))
	for fld, msg := range core.TranslateErrors(vErrs, cli.translator) {
		msgs = append(msgs, fld+": "+msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}
