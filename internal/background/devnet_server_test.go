package background

import (
	"context"
	"io/ioutil"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitee.com/czyczk/attested-reveal/internal/controller"
	"gitee.com/czyczk/attested-reveal/internal/devnet"
)

func TestDevnetServerLifecycle(t *testing.T) {
	network, err := devnet.NewNetwork(devnet.Config{Verifier: "test"}, devnet.NewMemStore(), nil)
	require.NoError(t, err)

	server := NewDevnetServer(network, "127.0.0.1:0")
	assert.Nil(t, server.ListenAddr())
	assert.Error(t, server.Stop(context.Background()))

	require.NoError(t, server.Start())
	assert.Error(t, server.Start())

	resp, err := http.Get("http://" + server.ListenAddr().String() + controller.APIPrefix + "/ping")
	require.NoError(t, err)
	body, err := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	require.NoError(t, server.Stop(context.Background()))
	assert.Nil(t, server.ListenAddr())
	assert.Error(t, server.Stop(context.Background()))
}
