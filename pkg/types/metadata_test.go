package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataScanAcceptsBytesAndString(t *testing.T) {
	var m Metadata
	require.NoError(t, m.Scan([]byte(`{"locationId":"loc-1","count":2}`)))
	assert.Equal(t, "loc-1", m["locationId"])
	assert.EqualValues(t, 2, m["count"])

	require.NoError(t, m.Scan(`{}`))
	assert.Empty(t, m)

	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m)

	assert.Error(t, m.Scan(42))
}

func TestMetadataValueDefaultsToEmptyObject(t *testing.T) {
	var m Metadata
	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestStringListValueAndScan(t *testing.T) {
	v, err := StringList{"sms", "email"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["sms","email"]`, v)

	var l StringList
	require.NoError(t, l.Scan(v))
	assert.Equal(t, StringList{"sms", "email"}, l)

	nilValue, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", nilValue)
}

func TestRawJSONRejectsInvalidDocuments(t *testing.T) {
	_, err := RawJSON(`{"broken"`).Value()
	assert.Error(t, err)

	v, err := RawJSON(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var r RawJSON
	require.NoError(t, r.Scan([]byte(`{"ok":true}`)))
	out, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))
}
