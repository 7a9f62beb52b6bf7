package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Missing config, corpus or artifacts
	ExitUnavailable = 3 // Embedding backend or index unavailable
	ExitNotFound    = 4 // Problem id not found
)
