package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	berr "github.com/next-trace/scg-slice-bus/contract/errors"
)

func TestCode_ErrorStringMatchesCode(t *testing.T) {
	t.Parallel()

	err := berr.Code("x.y")
	if err.Error() != "x.y" {
		t.Fatalf("want x.y, got %q", err.Error())
	}
}

func TestSentinels_MatchTheirCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code string
	}{
		{"kind exists", berr.ErrKindExists, berr.ErrCodeKindExists},
		{"kind invalid", berr.ErrKindInvalid, berr.ErrCodeKindInvalid},
		{"kind unknown", berr.ErrKindUnknown, berr.ErrCodeKindUnknown},
		{"payload type", berr.ErrPayloadType, berr.ErrCodePayloadType},
		{"subscription exists", berr.ErrSubscriptionExists, berr.ErrCodeSubscriptionExists},
		{"nil handler", berr.ErrNilHandler, berr.ErrCodeNilHandler},
		{"bus closed", berr.ErrBusClosed, berr.ErrCodeBusClosed},
		{"dispatch cycle", berr.ErrDispatchCycle, berr.ErrCodeDispatchCycle},
		{"handler failed", berr.ErrHandlerFailed, berr.ErrCodeHandlerFailed},
		{"handler panic", berr.ErrHandlerPanic, berr.ErrCodeHandlerPanic},
		{"handler timeout", berr.ErrHandlerTimeout, berr.ErrCodeHandlerTimeout},
		{"no responder", berr.ErrNoResponder, berr.ErrCodeNoResponder},
		{"request timeout", berr.ErrRequestTimeout, berr.ErrCodeRequestTimeout},
		{"response type", berr.ErrResponseType, berr.ErrCodeResponseType},
		{"descriptor invalid", berr.ErrDescriptorInvalid, berr.ErrCodeDescriptorInvalid},
		{"service exists", berr.ErrServiceExists, berr.ErrCodeServiceExists},
		{"service unknown", berr.ErrServiceUnknown, berr.ErrCodeServiceUnknown},
		{"service shut down", berr.ErrServiceShutdown, berr.ErrCodeServiceShutdown},
		{"dependency undeclared", berr.ErrDependencyUndeclared, berr.ErrCodeDependencyUndeclared},
		{"dependency type", berr.ErrDependencyType, berr.ErrCodeDependencyType},
		{"circular dependency", berr.ErrCircularDependency, berr.ErrCodeCircularDependency},
		{"service construction", berr.ErrServiceConstruction, berr.ErrCodeServiceConstruction},
		{"runtime started", berr.ErrRuntimeStarted, berr.ErrCodeRuntimeStarted},
		{"config invalid", berr.ErrConfigInvalid, berr.ErrCodeConfigInvalid},
		{"forward failed", berr.ErrForwardFailed, berr.ErrCodeForwardFailed},
		{"serialization failed", berr.ErrSerializationFailed, berr.ErrCodeSerializationFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if !stderrors.Is(tc.err, berr.Code(tc.code)) {
				t.Fatalf("errors.Is(%v, Code(%q)) = false, want true", tc.err, tc.code)
			}
			if tc.err.Error() != tc.code {
				t.Fatalf("want %q, got %q", tc.code, tc.err.Error())
			}
		})
	}
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("resolve cache: %w", berr.ErrCircularDependency)
	if !stderrors.Is(wrapped, berr.ErrCircularDependency) {
		t.Fatalf("wrapped error does not match sentinel")
	}

	joined := stderrors.Join(berr.ErrHandlerFailed, berr.ErrHandlerTimeout)
	if !stderrors.Is(joined, berr.ErrHandlerFailed) || !stderrors.Is(joined, berr.ErrHandlerTimeout) {
		t.Fatalf("joined error lost a sentinel")
	}
}
