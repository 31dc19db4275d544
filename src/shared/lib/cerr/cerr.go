// Package cerr builds errors carrying structured context fields.
// The fields travel along the wrap chain and come back out in one
// log line through Log.
package cerr

import (
	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

type F = map[string]interface{}

// Ctx accumulates fields and an optional cause before the terminal
// Error call materializes the error. Ctx values are immutable -
// every method returns a derived copy.
type Ctx struct {
	fields F
	err    error
}

func Error(msg string) error {
	return Ctx{}.Error(msg)
}

func Wrap(err error) Ctx {
	return Ctx{}.Wrap(err)
}

func Field(key string, value interface{}) Ctx {
	return Ctx{}.Field(key, value)
}

func Fields(fields F) Ctx {
	return Ctx{}.Fields(fields)
}

func (c Ctx) Field(key string, value interface{}) Ctx {
	merged := make(F, len(c.fields)+1)
	for k, v := range c.fields {
		merged[k] = v
	}
	merged[key] = value

	return Ctx{fields: merged, err: c.err}
}

func (c Ctx) Fields(fields F) Ctx {
	merged := make(F, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return Ctx{fields: merged, err: c.err}
}

func (c Ctx) Wrap(err error) Ctx {
	return Ctx{fields: c.fields, err: err}
}

func (c Ctx) Error(msg string) error {
	var err error
	if c.err != nil {
		err = errors.Wrap(c.err, msg)
	} else {
		err = errors.New(msg)
	}

	if len(c.fields) == 0 {
		return err
	}

	return fieldedError{err: err, fields: c.fields}
}

// fieldedError decorates an error with fields without disturbing the
// chain - Is/As/Unwrap all pass through.
type fieldedError struct {
	err    error
	fields F
}

func (f fieldedError) Error() string {
	return f.err.Error()
}

func (f fieldedError) Unwrap() error {
	return f.err
}

// Log emits the error at error level with every field collected from
// the whole chain. Inner fields win over outer ones on key collision.
func Log(err error) {
	if err == nil {
		return
	}

	logFields := log.Fields{}

	for curr := err; curr != nil; curr = errors.UnwrapOnce(curr) {
		if fielded, ok := curr.(fieldedError); ok {
			for k, v := range fielded.fields {
				logFields[k] = v
			}
		}
	}

	log.WithFields(logFields).Error(err.Error())
}
