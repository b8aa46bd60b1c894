package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/fheregistry/internal/logging"
	gethcommon "github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = MessageCreated{
	MessageID: 7,
	Sender:    gethcommon.HexToAddress("0x00000000000000000000000000000000000a11ce"),
	CreatedAt: 1700000000,
}

func TestTopic(t *testing.T) {
	assert.Equal(t, topicOf("MessageCreated(uint256,address,uint256)"), Topic)
	assert.NotEqual(t, gethcommon.Hash{}, Topic)
}

func TestEncodeDecode(t *testing.T) {
	b, err := sample.Encode()
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	_, err = Decode([]byte{0xff})
	assert.Error(t, err)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(logging.NewJSONLogger(&buf, slog.LevelInfo))

	require.NoError(t, s.Publish(context.Background(), sample))
	out := buf.String()
	assert.Contains(t, out, `"msg":"MessageCreated"`)
	assert.Contains(t, out, Topic.Hex())
	assert.Contains(t, out, `"message_id":7`)
	assert.Contains(t, out, `"module":"events"`)
}

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, MessageCreated) error { return f.err }

func TestMulti(t *testing.T) {
	feed := NewFeed(1)
	ch, cancel := feed.Subscribe()
	defer cancel()

	boom := errors.New("boom")
	err := Multi{failingSink{err: boom}, feed}.Publish(context.Background(), sample)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, sample, <-ch)

	assert.NoError(t, Multi{feed}.Publish(context.Background(), sample))
}

func TestFeed(t *testing.T) {
	ctx := context.Background()
	f := NewFeed(1)

	a, cancelA := f.Subscribe()
	b, cancelB := f.Subscribe()
	assert.Equal(t, 2, f.Subscribers())

	require.NoError(t, f.Publish(ctx, sample))
	// b is full; the second event is dropped for it, not blocking.
	assert.Equal(t, sample, <-a)
	next := sample
	next.MessageID = 8
	require.NoError(t, f.Publish(ctx, next))

	assert.Equal(t, next, <-a)
	assert.Equal(t, sample, <-b)
	select {
	case e := <-b:
		t.Fatalf("unexpected event %v", e)
	default:
	}

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, f.Subscribers())
	cancelB()
	assert.Equal(t, 0, f.Subscribers())
}
