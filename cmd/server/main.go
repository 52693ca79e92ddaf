package main

import (
	"github.com/dwarvesf/alph-swap-backend/internal/server"
)

// @title ALPH Swap API
// @version 1.0
// @description Swap ALPH for tokens served from the faucet wallet.
// @BasePath /api
func main() {
	server.Init()
}
