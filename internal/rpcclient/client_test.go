package rpcclient

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Call_SendsJSONRPC10EnvelopeWithBasicAuth(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"result":42,"error":null,"id":1}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.Listener.Addr().String(), "alice", "hunter2", 5*time.Second)
	result, err := c.Call(context.Background(), "getblockcount", nil)
	require.NoError(t, err)
	assert.JSONEq(t, "42", string(result))

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:hunter2"))
	assert.Equal(t, wantAuth, gotAuth)
	assert.Contains(t, gotBody, `"jsonrpc":"1.0"`)
	assert.Contains(t, gotBody, `"method":"getblockcount"`)
}

func TestHTTPClient_Call_ReturnsErrorOnRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":null,"error":{"code":-8,"message":"block not found"},"id":1}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.Listener.Addr().String(), "alice", "hunter2", 5*time.Second)
	_, err := c.Call(context.Background(), "getblock", []interface{}{"deadbeef"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block not found")
}

func TestHTTPClient_Call_ReturnsErrorOnHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.Listener.Addr().String(), "alice", "wrong", 5*time.Second)
	_, err := c.Call(context.Background(), "getblockcount", nil)
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
}
