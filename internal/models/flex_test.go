package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestFlexValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		isNull   bool
		isNumber bool
	}{
		{`null`, "", true, false},
		{`20`, "20", false, true},
		{`20.0`, "20", false, true},
		{`1.50`, "1.5", false, true},
		{`"24 (2 spare)"`, "24 (2 spare)", false, false},
		{`""`, "", false, false},
		{`true`, "true", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v FlexValue
			require.NoError(t, json.Unmarshal([]byte(tt.in), &v))
			assert.Equal(t, tt.want, v.String())
			assert.Equal(t, tt.isNull, v.IsNull())
			assert.Equal(t, tt.isNumber, v.IsNumber())
		})
	}
}

func TestFlexValue_RejectsStructures(t *testing.T) {
	var v FlexValue
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &v))
}

func TestFlexValue_MarshalJSON(t *testing.T) {
	type wrap struct {
		Qty FlexValue `json:"qty"`
	}
	b, err := json.Marshal(wrap{Qty: IntValue(24)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":24}`, string(b))

	b, err = json.Marshal(wrap{Qty: TextValue("24 ea")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":"24 ea"}`, string(b))

	b, err = json.Marshal(wrap{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":null}`, string(b))
}

func TestFlexValue_Msgpack(t *testing.T) {
	for _, v := range []FlexValue{{}, IntValue(24), TextValue("410W")} {
		b, err := msgpack.Marshal(v)
		require.NoError(t, err)
		var got FlexValue
		require.NoError(t, msgpack.Unmarshal(b, &got))
		assert.True(t, v.Equal(got), "%q != %q", v.String(), got.String())
		assert.Equal(t, v.IsNull(), got.IsNull())
	}
}
