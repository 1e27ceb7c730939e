package main

import (
	"github.com/databacker/mysql-db-dump/cmd"
)

func main() {
	cmd.Execute()
}
