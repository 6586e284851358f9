package main

import (
	"context"
	"flag"

	"github.com/kingfluencer/backend/internal/opsadmin"
)

func main() {
	addr := flag.String("a", "http://127.0.0.1:8080", "backend server address")
	flag.Parse()

	app := opsadmin.NewApp(*addr)
	app.Run(context.Background())
}
