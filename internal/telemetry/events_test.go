package telemetry

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEmitter(publisher, "messaging-service", "test", quietLogger())

	publisher.On("Publish", mock.Anything, "messaging.message_stored", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(EventEnvelope)
		return ok &&
			envelope.EventName == EventMessageStored &&
			envelope.Service == "messaging-service" &&
			envelope.UserID == "u1" &&
			envelope.ConnID == "c1"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), EventMessageStored, "u1", "c1", map[string]any{"message_id": int64(9)})
	publisher.AssertExpectations(t)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEmitter(publisher, "messaging-service", "test", quietLogger())

	publisher.On("Publish", mock.Anything, "messaging.ws_error", mock.Anything).
		Return(assert.AnError).Once()

	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), EventWSError, "u1", "c1", nil)
	})
	publisher.AssertExpectations(t)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *Emitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), EventWSConnect, "u1", "c1", nil)
	})
}
