package main

import (
	_ "embed"

	"github.com/tesselslate/xmacro/cmd"
)

//go:embed .version
var version string

func main() {
	cmd.Execute(version)
}
