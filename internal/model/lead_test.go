package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
)

func TestReasonCodeListRoundTrip(t *testing.T) {
	list := model.ReasonCodeList{
		{Feature: "poutcome", Direction: "positive", ShapValue: 0.42},
		{Feature: "balance", Direction: "negative", ShapValue: -0.18},
		{Feature: "age", Direction: "positive", ShapValue: 0.05},
	}

	raw, err := list.Value()
	require.NoError(t, err)

	var decoded model.ReasonCodeList
	require.NoError(t, decoded.Scan(raw))

	// Significance order survives the JSONB round trip.
	require.Len(t, decoded, 3)
	assert.Equal(t, list, decoded)
	assert.Equal(t, "poutcome", decoded[0].Feature)
	assert.Equal(t, "age", decoded[2].Feature)
}

func TestReasonCodeListScanVariants(t *testing.T) {
	var fromString model.ReasonCodeList
	require.NoError(t, fromString.Scan(`[{"feature":"job","direction":"positive","shap_value":0.1}]`))
	require.Len(t, fromString, 1)
	assert.Equal(t, "job", fromString[0].Feature)

	var fromNil model.ReasonCodeList
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)

	var fromBogus model.ReasonCodeList
	assert.Error(t, fromBogus.Scan(42))
}

func TestReasonCodeListNilValue(t *testing.T) {
	var list model.ReasonCodeList
	raw, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)
}

func TestUserIsAdmin(t *testing.T) {
	assert.True(t, (&model.User{Role: model.RoleAdmin}).IsAdmin())
	assert.False(t, (&model.User{Role: model.RoleAnalyst}).IsAdmin())
}
