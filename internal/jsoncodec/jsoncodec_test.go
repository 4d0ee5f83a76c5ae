package jsoncodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMarshal_UsesStdCompatibleOutput(t *testing.T) {
	req := require.New(t)

	out, err := Marshal(sample{Name: "Ada <3", Count: 2})
	req.NoError(err)
	// ConfigStd escapa HTML como encoding/json
	req.JSONEq(`{"name":"Ada <3","count":2}`, string(out))
	req.Contains(string(out), `\u003c`)
}

func TestEncodeDecode(t *testing.T) {
	req := require.New(t)

	var buf bytes.Buffer
	req.NoError(Encode(&buf, sample{Name: "x", Count: 1}))

	var got sample
	req.NoError(Decode(strings.NewReader(buf.String()), &got))
	req.Equal(sample{Name: "x", Count: 1}, got)
}
