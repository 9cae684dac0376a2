package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify(t *testing.T) {
	pull, err := zmq4.NewSocket(zmq4.PULL)
	require.NoError(t, err)
	defer pull.Close()
	require.NoError(t, pull.Bind("tcp://127.0.0.1:*"))
	require.NoError(t, pull.SetRcvtimeo(5*time.Second))
	endpoint, err := pull.GetLastEndpoint()
	require.NoError(t, err)

	n, err := New(endpoint)
	require.NoError(t, err)
	defer n.Close()

	id := uuid.New()
	require.NoError(t, n.Notify(id, 7))

	msg, err := pull.RecvMessage(0)
	require.NoError(t, err)
	assert.Equal(t, []string{id.String(), "7"}, msg)
}

func TestNewBadEndpoint(t *testing.T) {
	_, err := New("nowhere")
	assert.Error(t, err)
}
