package broadcast

import (
	"bytes"
)

// PingFrame é o keep-alive enviado periodicamente em cada stream.
var PingFrame = Frame("ping", []byte("{}"))

// Frame monta um evento Server-Sent Events:
//
//	event: <nome>
//	data: <payload>
//
// Quebras de linha no payload viram várias linhas "data:", como manda o formato.
func Frame(event string, data []byte) []byte {
	var b bytes.Buffer
	b.Grow(len(event) + len(data) + 16)
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	for _, line := range bytes.Split(data, []byte("\n")) {
		b.WriteString("data: ")
		b.Write(bytes.TrimSuffix(line, []byte("\r")))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.Bytes()
}
