package ir

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// BugCode is one of the closed set of invariant-violation codes a fatal
// bug report can carry.
type BugCode string

// There is no code for a φ appearing after a non-φ instruction:
// AppendCombinator always inserts at the head of the block, so that
// ordering holds by construction and is never detected at runtime.
const (
	BugTerminatorAlreadyPresent BugCode = "IR0001"
	BugTypeMismatch             BugCode = "IR0002"
	BugSecondSSAAssignment      BugCode = "IR0003"
	BugSelfReplace              BugCode = "IR0004"
	BugPhiArity                 BugCode = "IR0005"
	BugForeignVariable          BugCode = "IR0006"
	BugNotOwned                 BugCode = "IR0007"
	BugReentrant                BugCode = "IR0008"
)

// BugError is the typed panic value raised by bug(). The library panics
// rather than calling os.Exit directly so that a process boundary (such as
// cmd/ircli's main) can recover, print, and exit(2), while package tests
// can recover the same value to assert that a violation was detected
// without killing the test binary.
type BugError struct {
	Code    BugCode
	Message string
}

func (e *BugError) Error() string {
	return fmt.Sprintf("[BUG] %s %s", e.Code, e.Message)
}

var bugWriter io.Writer = os.Stderr

// bug reports a fatal invariant violation: it writes the colourised
// "[BUG] <code> <message>" line to bugWriter (stderr by default) and panics
// with *BugError; it never returns. Only a process boundary such as
// cmd/ircli turns that panic into an exit.
func bug(code BugCode, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	bold := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(bugWriter, "%s %s\n", bold("[BUG]"), fmt.Sprintf("%s %s", code, msg))
	panic(&BugError{Code: code, Message: msg})
}
