package csb19

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds and descriptions reported to the operator.
const (
	KindConfigurationError = "configuration_error"

	DescPartyWithoutAddress = "party_without_address"
)

// ErrPartyWithoutAddress matches any ConfigurationError raised because a
// payee has no address while the journal needs one.
var ErrPartyWithoutAddress = errors.New("party without address")

// messages holds the operator-facing text of each description. %s verbs are
// filled from ConfigurationError.Args.
var messages = map[string]string{
	DescPartyWithoutAddress: "The party %q has no address, which the CSB 19 journal requires.",
}

// ConfigurationError is a user-facing error: the batch cannot be generated
// until the operator fixes the data or the journal setup. It carries a kind,
// a description key and the substitution arguments of the message.
type ConfigurationError struct {
	Kind        string
	Description string
	Args        []string
}

func newConfigurationError(description string, args ...string) *ConfigurationError {
	return &ConfigurationError{
		Kind:        KindConfigurationError,
		Description: description,
		Args:        args,
	}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Description, strings.Join(e.Args, ", "))
}

// Message returns the message meant for display.
func (e *ConfigurationError) Message() string {
	format, ok := messages[e.Description]
	if !ok {
		return e.Error()
	}
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		args[i] = a
	}
	return fmt.Sprintf(format, args...)
}

// Is lets errors.Is match the description sentinels.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrPartyWithoutAddress && e.Description == DescPartyWithoutAddress
}
