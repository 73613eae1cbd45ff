package apiconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/ledger/pkg/api"
)

func TestCodec(t *testing.T) {
	codec := Codec{}
	assert.Equal(t, "json", codec.Name())

	name := "Main"
	data, err := codec.Marshal(&api.UpdateBalanceRequest{BalanceID: "b1", Name: &name})
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance_id":"b1","name":"Main"}`, string(data))

	var req api.UpdateBalanceRequest
	require.NoError(t, codec.Unmarshal(data, &req))
	assert.Equal(t, "b1", req.BalanceID)
	require.NotNil(t, req.Name)
	assert.Nil(t, req.Currency)
}

func TestCodecEmptyBody(t *testing.T) {
	var req api.ListBalancesRequest
	assert.NoError(t, Codec{}.Unmarshal(nil, &req))

	var get api.GetBalanceRequest
	assert.Error(t, Codec{}.Unmarshal([]byte("{"), &get))
}
