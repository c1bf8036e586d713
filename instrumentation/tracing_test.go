package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSpanHelpers_NilSafe(t *testing.T) {
	// All helpers must tolerate a nil span
	RecordError(nil, errors.New("boom"))
	SetSpanSuccess(nil)
	SetSpanError(nil, "message")
	SetSpanAttributes(nil, attribute.String("k", "v"))
	AddLoginAttributes(nil, "github", "live")
	AddSessionAttributes(nil, "get", true)
}

func TestSpanHelpers_WithSpan(t *testing.T) {
	inst, err := New(Config{ServiceName: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := inst.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	RecordError(span, errors.New("boom"))
	RecordError(span, nil) // nil error is ignored
	SetSpanSuccess(span)
	SetSpanError(span, "failed")
	SetSpanAttributes(span, attribute.Bool(AttrSuccess, true))
	AddLoginAttributes(span, "github", "fallback")
	AddLoginAttributes(span, "", "") // empty values are skipped
	AddSessionAttributes(span, "delete", false)
}
