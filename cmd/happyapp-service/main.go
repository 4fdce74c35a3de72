package main

import (
	"os"

	"github.com/Fau-Caudullo/happyapp/happyservice"
)

func main() {
	if err := happyservice.Run(); err != nil {
		os.Exit(1)
	}
}
