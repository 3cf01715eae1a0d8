package main

import (
	cmd "github.com/mafhper/arrumaessevideo/apps/arrumaessevideo/cmd"
)

func main() {
	cmd.Execute()
}
