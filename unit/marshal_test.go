package unit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	u := New(Params{
		Name:         "geo.distance",
		Constants:    []any{nil, true, int64(42), 3.25, "meters", 7},
		Symbols:      []string{"geo.point", "math.sqrt"},
		Instructions: []uint32{1, 2, 3, 4},
	})

	data, err := Marshal(u)
	require.Nil(t, err)
	require.Equal(t, magic, data[:4])

	got, err := Unmarshal(data)
	require.Nil(t, err)
	require.Equal(t, "geo.distance", got.Name())
	require.Equal(t, []string{"geo.point", "math.sqrt"}, got.Symbols())
	require.Equal(t, 4, got.InstructionCount())
	require.Equal(t, uint32(3), got.InstructionAt(2))

	require.Equal(t, 6, got.ConstantCount())
	require.Nil(t, got.ConstantAt(0))
	require.Equal(t, true, got.ConstantAt(1))
	require.Equal(t, int64(42), got.ConstantAt(2))
	require.Equal(t, 3.25, got.ConstantAt(3))
	require.Equal(t, "meters", got.ConstantAt(4))
	// Platform ints come back as int64.
	require.Equal(t, int64(7), got.ConstantAt(5))
}

func TestUnmarshalBadMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{'G', 'N'}},
		{"wrong-header", []byte("PK\x03\x04....")},
		{"wrong-version", []byte{'G', 'N', 'T', 0x02, '{', '}'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			require.ErrorIs(t, err, ErrBadMagic)
		})
	}
}

func TestUnmarshalCorruptBody(t *testing.T) {
	data := append(append([]byte{}, magic...), []byte(`{"name": `)...)
	_, err := Unmarshal(data)
	require.NotNil(t, err)
	require.NotErrorIs(t, err, ErrBadMagic)
}

func TestUnmarshalUnknownConstant(t *testing.T) {
	data := append(append([]byte{}, magic...),
		[]byte(`{"name":"x","instructions":[],"constants":[{"type":"blob"}]}`)...)
	_, err := Unmarshal(data)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "unknown constant type")
}

func TestMarshalUnknownConstant(t *testing.T) {
	u := New(Params{Name: "x", Constants: []any{struct{}{}}})
	_, err := Marshal(u)
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "unknown constant type")
}
