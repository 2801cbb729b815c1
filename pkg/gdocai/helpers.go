package gdocai

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// responseJSON encodes an API response as indented JSON for debug dumps.
func responseJSON(msg proto.Message) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
}
