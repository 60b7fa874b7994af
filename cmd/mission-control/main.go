package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/missioncontrol/cmd/mission-control/app"
)

func main() {
	app.NewApp().Run()
}
