package emeter

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// Telemetry is mirrored in protobuf wire format, equivalent to
//
//	message Telemetry {
//	  sint32 charge = 1;
//	  sint32 voltage = 2;
//	  sint32 current = 3;
//	  sint32 speed = 4;
//	  sint32 distance = 5;
//	}
//
// Zero values are omitted as proto3 does.

// MarshalProto encodes the snapshot.
func (t *Telemetry) MarshalProto() []byte {
	buf := proto.NewBuffer(make([]byte, 0, 32))
	for f := FieldCharge; f <= FieldDistance; f++ {
		v := t.Field(f)
		if v == 0 {
			continue
		}
		buf.EncodeVarint(uint64(f+1)<<3 | proto.WireVarint)
		buf.EncodeZigzag32(uint64(uint32(v)))
	}
	return buf.Bytes()
}

// UnmarshalProto decodes a snapshot. Unknown varint fields are skipped.
func (t *Telemetry) UnmarshalProto(data []byte) error {
	*t = Telemetry{}
	buf := proto.NewBuffer(data)
	for len(buf.Unread()) > 0 {
		key, err := buf.DecodeVarint()
		if err != nil {
			return err
		}
		if wire := key & 7; wire != proto.WireVarint {
			return fmt.Errorf("telemetry: unexpected wire type %d", wire)
		}
		val, err := buf.DecodeZigzag32()
		if err != nil {
			return err
		}
		if f := Field(key>>3) - 1; f.IsValid() {
			t.SetField(f, int32(uint32(val)))
		}
	}
	return nil
}
