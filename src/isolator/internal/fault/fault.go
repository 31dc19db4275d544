package fault

import "github.com/cockroachdb/errors"

// Reference errors for the three failure classes that drive control flow:
// input problems end the run, backend problems are isolated per file, and
// environment problems degrade to CPU execution.
var (
	Input       = errors.New("input error")
	Backend     = errors.New("backend error")
	Environment = errors.New("environment error")
)

func MarkInput(err error) error {
	return errors.Mark(err, Input)
}

func MarkBackend(err error) error {
	return errors.Mark(err, Backend)
}

func MarkEnvironment(err error) error {
	return errors.Mark(err, Environment)
}

func IsInput(err error) bool {
	return errors.Is(err, Input)
}

func IsBackend(err error) bool {
	return errors.Is(err, Backend)
}

func IsEnvironment(err error) bool {
	return errors.Is(err, Environment)
}
