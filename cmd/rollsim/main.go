// cmd/rollsim/main.go
package main

import (
	"rollsim/internal/app"
	"rollsim/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
