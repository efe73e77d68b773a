package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/testutil"
)

var _ logging.Logger = (*testutil.MockLogger)(nil)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)
	v, ok := messages[0].Field("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_DerivedLoggersShareRecord(t *testing.T) {
	root := testutil.NewMockLogger()
	ctx := logging.WithRequestID(context.Background(), "req-1")

	root.Named("engine").With(logging.String("component", "scorer")).Warn("w")
	root.WithContext(ctx).WithError(errors.New("boom")).Error("e")

	warns := root.MessagesAt("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "engine", warns[0].Logger)
	c, _ := warns[0].Field("component")
	assert.Equal(t, "scorer", c)

	errs := root.MessagesAt("error")
	require.Len(t, errs, 1)
	id, ok := errs[0].Field(logging.FieldRequestID)
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)
}

//Personal.AI order the ending
