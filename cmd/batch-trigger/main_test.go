package main

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTrigger(t *testing.T) {
	inner := base64.StdEncoding.EncodeToString([]byte(`{"reason":"nightly"}`))
	msg, err := decodeTrigger([]byte(`{"message":{"data":"` + inner + `"}}`))
	require.NoError(t, err)
	assert.Equal(t, "nightly", msg.Reason)
}

func TestDecodeTrigger_Empty(t *testing.T) {
	msg, err := decodeTrigger(nil)
	require.NoError(t, err)
	assert.Empty(t, msg.Reason)

	msg, err = decodeTrigger([]byte(`{"message":{}}`))
	require.NoError(t, err)
	assert.Empty(t, msg.Reason)
}

func TestDecodeTrigger_Invalid(t *testing.T) {
	_, err := decodeTrigger([]byte(`not json`))
	assert.Error(t, err)
}
