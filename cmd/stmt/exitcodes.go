package main

// Exit codes
const (
	ExitSuccess             = 0 // Success
	ExitError               = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError         = 2 // Configuration error (invalid values, missing tokens)
	ExitDataError           = 3 // Data error (unreadable transcript, no passages)
	ExitProviderUnavailable = 4 // Embedding provider not reachable
	ExitModelNotFound       = 5 // Embedding model not found
	ExitNotFound            = 6 // Stored run not found
)
