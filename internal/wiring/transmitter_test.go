package wiring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/riskflow/internal/packet"
)

// newPair returns a sender with output "outClaims" and a receiver with input
// "inClaims", connected by a transmitter.
func newPair(t *testing.T) (*Transmitter, *packet.Channel, *packet.Channel) {
	t.Helper()
	noop := LogicFunc(func(context.Context, *Step) error { return nil })
	sender := NewComponent("generator", "claims-generator", noop)
	receiver := NewComponent("aggregator", "aggregator", noop)
	src := Out[*claim](sender, "outClaims")
	dst := In[*claim](receiver, "inClaims")

	tr, err := NewTransmitter(sender, src, receiver, dst)
	require.NoError(t, err)
	return tr, src, dst
}

func TestTransmitter_TransmitMovesWholeBatch(t *testing.T) {
	tr, src, dst := newPair(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, src.Append(&claim{Amount: float64(i)}))
	}

	require.NoError(t, tr.Transmit(context.Background()))

	assert.True(t, tr.Transmitted())
	require.Equal(t, 3, dst.Len())
	for i, p := range dst.All() {
		assert.Equal(t, float64(i), p.(*claim).Amount, "order preserved")
	}
	assert.True(t, tr.Receiver().Ready(), "receiver notified")
}

func TestTransmitter_RetransmissionRejected(t *testing.T) {
	tr, src, dst := newPair(t)
	require.NoError(t, src.Append(&claim{Amount: 1}))
	require.NoError(t, tr.Transmit(context.Background()))

	require.NoError(t, src.Append(&claim{Amount: 2}))
	err := tr.Transmit(context.Background())

	require.Error(t, err)
	assert.True(t, IsRetransmissionError(err))
	var re *RetransmissionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "generator", re.Sender)
	assert.Equal(t, "aggregator", re.Receiver)
	assert.Equal(t, "outClaims", re.Channel)
	assert.Contains(t, re.PacketType, "claim")
	assert.Equal(t, 1, dst.Len(), "target unchanged after rejected retransmission")
}

func TestTransmitter_StampsProvenance(t *testing.T) {
	tr, src, dst := newPair(t)
	p := &claim{Amount: 5}
	p.Stamp(NewComponent("stale", "x", nil), "outStale")
	require.NoError(t, src.Append(p))

	require.NoError(t, tr.Transmit(context.Background()))

	for _, got := range dst.All() {
		assert.Same(t, tr.Sender(), got.Sender())
		assert.Equal(t, tr.SenderChannelName(), got.SenderChannelName())
	}
	assert.Equal(t, "outClaims", tr.SenderChannelName())
}

func TestTransmitter_ResetAllowsRefill(t *testing.T) {
	tr, src, dst := newPair(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, src.Append(&claim{}))
	}
	require.NoError(t, tr.Transmit(context.Background()))

	// Next step: channels cleared, transmitter and receiver reset.
	tr.Reset()
	tr.Sender().reset()
	tr.Receiver().reset()
	for i := 0; i < 2; i++ {
		require.NoError(t, src.Append(&claim{}))
	}
	require.NoError(t, tr.Transmit(context.Background()))

	assert.Equal(t, src.Len(), dst.Len(), "no residue from the previous step")
}

func TestTransmitter_EmptyBatchStillNotifies(t *testing.T) {
	tr, _, dst := newPair(t)

	require.NoError(t, tr.Transmit(context.Background()))

	assert.Zero(t, dst.Len())
	assert.True(t, tr.Transmitted())
	assert.True(t, tr.Receiver().Ready())
}

func TestNewTransmitter_TypeMismatch(t *testing.T) {
	noop := LogicFunc(func(context.Context, *Step) error { return nil })
	sender := NewComponent("a", "a", noop)
	receiver := NewComponent("b", "b", noop)
	src := Out[*claim](sender, "out")
	dst := In[*premium](receiver, "in")

	_, err := NewTransmitter(sender, src, receiver, dst)

	var mismatch *packet.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "in", mismatch.Channel)
}

func TestNewTransmitter_ChannelOwnership(t *testing.T) {
	noop := LogicFunc(func(context.Context, *Step) error { return nil })
	sender := NewComponent("a", "a", noop)
	receiver := NewComponent("b", "b", noop)
	src := Out[*claim](sender, "out")
	dst := In[*claim](receiver, "in")
	foreign := packet.NewChannel[*claim]("foreign")

	_, err := NewTransmitter(sender, foreign, receiver, dst)
	assert.True(t, HasCode(err, ErrCodeUnknownChannel))

	_, err = NewTransmitter(sender, src, receiver, foreign)
	assert.True(t, HasCode(err, ErrCodeUnknownChannel))
}

func TestComponent_DuplicateNotification(t *testing.T) {
	tr, _, _ := newPair(t)
	require.NoError(t, tr.Transmit(context.Background()))

	err := tr.Receiver().NotifyTransmitted(context.Background(), tr)

	assert.True(t, HasCode(err, ErrCodeDuplicateNotification))
}

func TestTransmitter_String(t *testing.T) {
	tr, _, _ := newPair(t)
	assert.Contains(t, tr.String(), "generator sends to aggregator")
	assert.Contains(t, tr.String(), "senderChannelName outClaims")
}
