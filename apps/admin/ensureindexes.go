package main

import (
	"context"

	mongorepos "github.com/darasahq/darasa/storage/database/mongodb"
)

func (cli *commandLine) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Database.Timeout)
	defer cancel()
	return mongorepos.EnsureIndexes(ctx, cli.db)
}
