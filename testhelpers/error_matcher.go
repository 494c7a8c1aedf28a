package testhelpers

import (
	"fmt"
	"reflect"

	"github.com/onsi/gomega/types"
	errorspkg "github.com/pkg/errors"
)

// BeErrorType matches when the cause of the actual error has the same
// concrete type as the expected error value, e.g.
// Expect(err).To(BeErrorType(veneer.InvalidRootfsErr{})).
func BeErrorType(expected interface{}) types.GomegaMatcher {
	return &beErrorTypeMatcher{expected: expected}
}

type beErrorTypeMatcher struct {
	expected interface{}
}

func (m *beErrorTypeMatcher) Match(actual interface{}) (bool, error) {
	if actual == nil {
		return false, nil
	}

	if _, ok := m.expected.(error); !ok {
		return false, fmt.Errorf("BeErrorType matcher expects an error")
	}

	actualErr, ok := actual.(error)
	if !ok {
		return false, fmt.Errorf("BeErrorType matcher expects an error")
	}

	cause := errorspkg.Cause(actualErr)
	return reflect.TypeOf(cause) == reflect.PtrTo(reflect.TypeOf(m.expected)), nil
}

func (m *beErrorTypeMatcher) FailureMessage(actual interface{}) string {
	if actual == nil {
		return "Expected error, got nil"
	}

	actualErr, _ := actual.(error)
	return fmt.Sprintf("Expected error\n\t%s\nto be of type\n\t%s", actualErr.Error(), reflect.TypeOf(m.expected))
}

func (m *beErrorTypeMatcher) NegatedFailureMessage(actual interface{}) string {
	actualErr, _ := actual.(error)
	return fmt.Sprintf("Expected error\n\t%s\nnot to be of type\n\t%s", actualErr.Error(), reflect.TypeOf(m.expected))
}
