package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InsertMessage] = (*InsertCommand)(nil)
	_ gocmd.Commander[UpsertMessage] = (*UpsertCommand)(nil)
	_ gocmd.Commander[UpdateMessage] = (*UpdateCommand)(nil)
	_ gocmd.Commander[DeleteMessage] = (*DeleteCommand)(nil)
)
