package ctrldev

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rinacore/rinacore/internal/errs"
	"github.com/rinacore/rinacore/internal/wire"
)

type echoHandler struct{}

func (echoHandler) Handle(ctx context.Context, dev *ControlDevice, eventID uint32, msg wire.Message) (wire.Message, error) {
	return &wire.IpcpCreateResp{IpcpID: 42}, nil
}

func TestAppendThenRead(t *testing.T) {
	d := New(1, echoHandler{})
	defer d.Close()

	payload := []byte("hello")
	require.NoError(t, d.Append(payload, true))

	buf := make([]byte, 32)
	n, err := d.Read(buf)
	require.NoError(t, err)
	require.Equal(t, payload, buf[:n])
}

func TestReadShortBufferRetainsMessage(t *testing.T) {
	d := New(1, echoHandler{})
	defer d.Close()

	require.NoError(t, d.Append([]byte("0123456789"), true))

	_, err := d.Read(make([]byte, 2))
	require.ErrorIs(t, err, errs.NoSpace)

	buf := make([]byte, 32)
	n, err := d.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(buf[:n]))
}

func TestReadTimeoutOnEmptyQueue(t *testing.T) {
	d := New(1, echoHandler{})
	defer d.Close()

	_, err := d.ReadTimeout(make([]byte, 32), 20*time.Millisecond)
	require.ErrorIs(t, err, errs.Interrupted)
}

func TestWriteDispatchesToHandlerAndEnqueuesResponse(t *testing.T) {
	d := New(1, echoHandler{})
	defer d.Close()

	req := wire.Encode(7, &wire.IpcpCreate{Name: "ipcp1", DIFName: "n.DIF", DIFType: "normal"})
	require.NoError(t, d.Write(context.Background(), req))

	buf := make([]byte, 256)
	n, err := d.ReadTimeout(buf, time.Second)
	require.NoError(t, err)

	hdr, msg, err := wire.Decode(buf[:n])
	require.NoError(t, err)
	require.Equal(t, uint32(7), hdr.EventID)
	resp, ok := msg.(*wire.IpcpCreateResp)
	require.True(t, ok)
	require.Equal(t, uint16(42), resp.IpcpID)
}

func TestCloseWakesBlockedRead(t *testing.T) {
	d := New(1, echoHandler{})
	done := make(chan struct{})
	go func() {
		_, err := d.Read(make([]byte, 32))
		require.ErrorIs(t, err, errs.BadFd)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, d.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock after Close")
	}
}

func TestAppendRejectsOverBudgetWhenNotSleepable(t *testing.T) {
	d := New(1, echoHandler{})
	defer d.Close()

	big := make([]byte, 17*1024)
	err := d.Append(big, false)
	require.ErrorIs(t, err, errs.NoSpace)
}
