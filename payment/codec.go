package payment

import (
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype every Strife RPC is carried with.
const CodecName = "msgpack"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec marshals RPC messages with msgpack instead of protobuf. Both ends
// register it at init; clients select it per call via CallOption.
type Codec struct{}

// Marshal returns the msgpack wire form of v
func (Codec) Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal parses the msgpack wire form into v
func (Codec) Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// Name identifies the codec in the registry and on the wire
func (Codec) Name() string {
	return CodecName
}

// CallOption - per-call option selecting the msgpack codec, required on every dial
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}
