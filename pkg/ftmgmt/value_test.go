package ftmgmt

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf(t *testing.T) {
	tests := []struct {
		in   any
		want Value
	}{
		{nil, Value{}},
		{"abc", StringValue("abc")},
		{true, BoolValue(true)},
		{42, IntValue(42)},
		{uint8(7), IntValue(7)},
		{uint64(math.MaxUint64), FloatValue(float64(uint64(math.MaxUint64)))},
		{float32(1.5), FloatValue(1.5)},
		{IntValue(3), IntValue(3)},
		{time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), StringValue("2020-01-02T03:04:05Z")},
		{[]int{1}, StringValue("[1]")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValueOf(tt.in), "%v", tt.in)
	}
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "", Value{}.String())
	assert.Equal(t, "True", BoolValue(true).String())
	assert.Equal(t, "False", BoolValue(false).String())
	assert.Equal(t, "30", FloatValue(30).String())
	assert.Equal(t, "0.25", FloatValue(0.25).String())
	assert.Equal(t, "-12", IntValue(-12).String())
}

func TestValue_Conversions(t *testing.T) {
	i, ok := StringValue(" 42 ").Int()
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	_, ok = FloatValue(1.5).Int()
	assert.False(t, ok)

	i, ok = FloatValue(3).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)

	f, ok := StringValue("58849.5").Float()
	assert.True(t, ok)
	assert.Equal(t, 58849.5, f)

	_, ok = StringValue("x").Float()
	assert.False(t, ok)

	_, ok = StringValue("true").Bool()
	assert.False(t, ok)

	assert.True(t, IntValue(1).IsNumeric())
	assert.False(t, StringValue("1").IsNumeric())
	assert.True(t, Value{}.IsNull())
}

func TestValue_Compare(t *testing.T) {
	assert.Equal(t, -1, IntValue(7).Compare(IntValue(42)))
	assert.Equal(t, 0, IntValue(2).Compare(FloatValue(2)))
	assert.Equal(t, 1, StringValue("7").Compare(StringValue("42")))
	assert.Equal(t, -1, Value{}.Compare(StringValue("")))
	assert.Equal(t, 1, IntValue(0).Compare(Value{}))
	assert.Equal(t, 0, Value{}.Compare(Value{}))

	assert.True(t, IntValue(2).Equal(IntValue(2)))
	assert.False(t, IntValue(2).Equal(FloatValue(2)))
}

func TestValue_JSON(t *testing.T) {
	data, err := json.Marshal([]Value{StringValue("a"), IntValue(1), FloatValue(2.5), BoolValue(true), {}, FloatValue(math.NaN())})
	require.NoError(t, err)
	assert.Equal(t, `["a",1,2.5,true,null,"NaN"]`, string(data))

	var got []Value
	require.NoError(t, json.Unmarshal([]byte(`["a", 1, 2.5, true, null, 3.0]`), &got))
	assert.Equal(t, []Value{StringValue("a"), IntValue(1), FloatValue(2.5), BoolValue(true), {}, FloatValue(3)}, got)

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
}
