package main

import (
	"os"

	"cep-admin/cmd/cep-admin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
