package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		input   string
		want    ByteSize
		wantErr bool
	}{
		{"0", 0, false},
		{"65536", 65536, false},
		{"1024B", 1024, false},
		{"128Ki", 128 * KiB, false},
		{"128KiB", 128 * KiB, false},
		{"4Mi", 4 * MiB, false},
		{"4 MiB", 4 * MiB, false},
		{"1Gi", GiB, false},
		{"1gib", GiB, false},
		{"10MB", 10 * MB, false},
		{"1K", KB, false},
		{"1.5Ki", 1536, false},
		{"  2Mi  ", 2 * MiB, false},

		{"", 0, true},
		{"   ", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
		{"10XB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByteSize_String(t *testing.T) {
	assert.Equal(t, "128KiB", (128 * KiB).String())
	assert.Equal(t, "1GiB", GiB.String())
	assert.Equal(t, "1500", ByteSize(1500).String())
	assert.Equal(t, "0", ByteSize(0).String())
}

func TestByteSize_RoundTrip(t *testing.T) {
	for _, b := range []ByteSize{0, 1, 128 * KiB, 3 * MiB, 10 * MB} {
		var back ByteSize
		require.NoError(t, back.UnmarshalText([]byte(b.String())))
		assert.Equal(t, b, back)
	}
}

func TestByteSize_YAML(t *testing.T) {
	var v struct {
		Chunk ByteSize `yaml:"chunk"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("chunk: 256Ki\n"), &v))
	assert.Equal(t, 256*KiB, v.Chunk)

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "chunk: 256KiB\n", string(out))
}

func TestByteSize_Conversions(t *testing.T) {
	assert.Equal(t, int64(1024), KiB.Int64())
	assert.Equal(t, 1024, KiB.Int())
	assert.Equal(t, int64(1<<63-1), ByteSize(1<<63).Int64())
	assert.Equal(t, "1.0 KiB", KiB.Human())
}
