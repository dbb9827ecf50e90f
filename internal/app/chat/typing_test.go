package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestPulseEmitsStartOncePerBurst(t *testing.T) {
	e, ch, _, _ := newTestEngine(t, time.Hour)
	require.NoError(t, e.Open(context.Background(), "bob"))

	e.Pulse()
	e.Pulse()
	e.Pulse()

	starts := ch.byEvent(core.EvTypingStart)
	require.Len(t, starts, 1)
	assert.Equal(t, domain.UserID("bob"), starts[0].payload.(core.TypingPayload).ReceiverID)
	assert.Empty(t, ch.byEvent(core.EvTypingStop))
	assert.True(t, e.TypingActive())
}

func TestStopFiresAfterQuietPeriod(t *testing.T) {
	e, ch, _, _ := newTestEngine(t, 30*time.Millisecond)
	require.NoError(t, e.Open(context.Background(), "bob"))

	e.Pulse()
	waitFor(t, func() bool { return len(ch.byEvent(core.EvTypingStop)) == 1 }, "typing_stop never fired")
	assert.False(t, e.TypingActive())

	// A fresh burst starts over.
	e.Pulse()
	assert.Len(t, ch.byEvent(core.EvTypingStart), 2)
}

func TestPulseReschedulesSingleStopTimer(t *testing.T) {
	e, ch, _, _ := newTestEngine(t, 50*time.Millisecond)
	require.NoError(t, e.Open(context.Background(), "bob"))

	// Keep typing faster than the quiet period: no stop may fire meanwhile.
	for i := 0; i < 4; i++ {
		e.Pulse()
		time.Sleep(20 * time.Millisecond)
	}
	assert.Empty(t, ch.byEvent(core.EvTypingStop))

	waitFor(t, func() bool { return len(ch.byEvent(core.EvTypingStop)) >= 1 }, "typing_stop never fired")
	assert.Len(t, ch.byEvent(core.EvTypingStop), 1)
}

func TestStaleQuietCallbackCannotEndLiveBurst(t *testing.T) {
	e, ch, _, _ := newTestEngine(t, time.Hour)
	require.NoError(t, e.Open(context.Background(), "bob"))

	// Two pulses: the first timer is canceled by the second. A callback that
	// fired before the cancel may still run after the reschedule.
	e.Pulse()
	e.Pulse()
	e.quietExpired(1)

	assert.Empty(t, ch.byEvent(core.EvTypingStop), "stale callback ended a live burst")
	assert.True(t, e.TypingActive())

	// Only the live generation ends the burst.
	e.quietExpired(2)
	assert.Len(t, ch.byEvent(core.EvTypingStop), 1)
	assert.False(t, e.TypingActive())

	// The next burst starts cleanly.
	e.Pulse()
	assert.Len(t, ch.byEvent(core.EvTypingStart), 2)
}

func TestSendStopsTypingImmediately(t *testing.T) {
	e, ch, _, _ := newTestEngine(t, time.Hour)
	require.NoError(t, e.Open(context.Background(), "bob"))

	e.Pulse()
	require.NoError(t, e.SendText(context.Background(), "hello"))

	assert.Len(t, ch.byEvent(core.EvTypingStop), 1)
	assert.False(t, e.TypingActive())

	// No pending timer fires a second stop later.
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, ch.byEvent(core.EvTypingStop), 1)
}

func TestSendWithoutBurstEmitsNoStop(t *testing.T) {
	e, ch, _, _ := newTestEngine(t, time.Hour)
	require.NoError(t, e.Open(context.Background(), "bob"))

	require.NoError(t, e.SendText(context.Background(), "hello"))
	assert.Empty(t, ch.byEvent(core.EvTypingStop))
}

func TestPulseWithoutConversationIsIgnored(t *testing.T) {
	e, ch, _, _ := newTestEngine(t, time.Hour)
	e.Pulse()
	assert.Empty(t, ch.byEvent(core.EvTypingStart))
	assert.False(t, e.TypingActive())
}
