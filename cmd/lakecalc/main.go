package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Recommendation produced
	ExitInvalidExam = 1 // The exam file failed validation
	ExitError       = 2 // Configuration or runtime error
)

// InvalidExamError indicates the exam document was read but failed schema
// validation.
type InvalidExamError struct {
	Message string
}

func (e *InvalidExamError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var invalidExamErr *InvalidExamError
		if errors.As(err, &invalidExamErr) {
			os.Exit(ExitInvalidExam)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
