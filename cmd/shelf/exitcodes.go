package main

// Exit codes shared by every command.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing repository, invalid config)
	ExitDataError   = 3 // Data error (malformed input, validation failure)
	ExitDuplicate   = 4 // Paper already saved
	ExitNotFound    = 5 // No paper with the given timestamp
	ExitFetchError  = 6 // Page could not be fetched
)
