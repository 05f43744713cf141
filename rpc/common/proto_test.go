package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponse(t *testing.T) {
	ok := NewResponse(MsgTWrite, "Wrote key 'a' and value '1'", nil)
	assert.True(t, ok.Ok)
	assert.Equal(t, store.RetCSuccess, ok.Code)
	assert.NoError(t, ok.Err())

	failed := NewResponse(MsgTRead, "", store.NewError(store.RetCNotFound, "key 'a' not found"))
	assert.False(t, failed.Ok)
	assert.Equal(t, "key 'a' not found", failed.Msg)

	err := failed.Err()
	require.Error(t, err)
	assert.Equal(t, store.RetCNotFound, store.CodeOf(err))

	unavailable := NewResponse(MsgTRead, "", fmt.Errorf("open: %w", db.ErrStorageUnavailable))
	assert.Equal(t, store.RetCStorageUnavailable, unavailable.Code)

	internal := NewResponse(MsgTRead, "", errors.New("boom"))
	assert.Equal(t, store.RetCInternalError, internal.Code)
}

func TestErrWithoutCode(t *testing.T) {
	// a failed response must never turn into a success on the client
	msg := &Message{MsgType: MsgTWrite, Ok: false, Msg: "something went wrong"}
	assert.Equal(t, store.RetCInternalError, store.CodeOf(msg.Err()))
}

func TestNodesStartingInRequestKeepsLayers(t *testing.T) {
	req := NewNodesStartingInRequest("car", "Vehicle", 0)
	assert.True(t, req.HasLayers)
	assert.Equal(t, int64(0), req.Layers)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"has_layers":true`)
	assert.NotContains(t, string(data), `"layers"`)
}

func TestMessageTypeJSON(t *testing.T) {
	for _, msgType := range MessageTypes {
		data, err := json.Marshal(msgType)
		require.NoError(t, err)
		assert.Equal(t, `"`+msgType.String()+`"`, string(data))

		var decoded MessageType
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, msgType, decoded)
	}

	var decoded MessageType
	assert.Error(t, json.Unmarshal([]byte(`"rename"`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`3`), &decoded))
}
