package main

import (
	"context"
	"os"

	"github.com/sekarsister/prediksi-pembenihan/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
