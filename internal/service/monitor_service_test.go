package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func registerMonitorClient(svc *monitorService, examID uuid.UUID, buffer int) *monitorClient {
	client := &monitorClient{
		send:    make(chan AttemptEvent, buffer),
		options: MonitorOptions{ExamID: examID},
		closed:  make(chan struct{}),
	}
	svc.register(client)
	return client
}

func TestMonitorServicePublishFiltersByExam(t *testing.T) {
	svc := NewMonitorService(testLogger()).(*monitorService)

	examID := uuid.New()
	watching := registerMonitorClient(svc, examID, 4)
	other := registerMonitorClient(svc, uuid.New(), 4)
	all := registerMonitorClient(svc, uuid.Nil, 4)

	svc.Publish(context.Background(), AttemptEvent{Kind: EventAttemptStarted, ExamID: examID})

	require.Len(t, watching.send, 1)
	require.Empty(t, other.send)
	require.Len(t, all.send, 1)

	event := <-watching.send
	require.Equal(t, EventAttemptStarted, event.Kind)
	require.Equal(t, examID, event.ExamID)
}

func TestMonitorServiceDropsEventsForSlowConsumers(t *testing.T) {
	svc := NewMonitorService(testLogger()).(*monitorService)

	examID := uuid.New()
	slow := registerMonitorClient(svc, examID, 1)

	svc.Publish(context.Background(), AttemptEvent{Kind: EventAttemptStarted, ExamID: examID})
	svc.Publish(context.Background(), AttemptEvent{Kind: EventAttemptSubmitted, ExamID: examID})

	// The second event is dropped rather than blocking the publisher.
	require.Len(t, slow.send, 1)
	event := <-slow.send
	require.Equal(t, EventAttemptStarted, event.Kind)
}
