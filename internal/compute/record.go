package compute

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mellw0101/3d-sim/internal/body"
)

// Record layout, std430 with every vec3 padded to 16 bytes:
//
//	offset  field
//	     0  position      vec3 + pad
//	    16  velocity      vec3 + pad
//	    32  acceleration  vec3 + pad
//	    48  size          vec3 + pad
//	    64  flags         int32[2]
//	    72  pad           8 bytes
//
// Pack and Unpack are the only code that knows these offsets.
const (
	RecordSize = 80

	offPosition     = 0
	offVelocity     = 16
	offAcceleration = 32
	offSize         = 48
	offFlags        = 64
)

// Bits of flag word 0. Word 1 is reserved and always zero.
const (
	flagFreeFly int32 = 1 << 0
	flagStatic  int32 = 1 << 1
)

// Record is one body as the device sees it.
type Record struct {
	Position     mgl32.Vec3
	Velocity     mgl32.Vec3
	Acceleration mgl32.Vec3
	Size         mgl32.Vec3
	Flags        body.Flags
}

func RecordFromBody(b *body.Body) Record {
	return Record{
		Position:     b.Position,
		Velocity:     b.Velocity,
		Acceleration: b.Acceleration,
		Size:         b.Size,
		Flags:        b.Flags,
	}
}

// ApplyTo scatters r back onto b.
func (r Record) ApplyTo(b *body.Body) {
	b.Position = r.Position
	b.Velocity = r.Velocity
	b.Acceleration = r.Acceleration
	b.Size = r.Size
	b.Flags = r.Flags
}

func FlagWords(f body.Flags) [2]int32 {
	var w [2]int32
	if f.FreeFly() {
		w[0] |= flagFreeFly
	}
	if f.Static() {
		w[0] |= flagStatic
	}
	return w
}

func FlagsFromWords(w [2]int32) body.Flags {
	return body.NewFlags(w[0]&flagStatic != 0, w[0]&flagFreeFly != 0)
}

// Pack lays records out back to back in one buffer.
func Pack(records []Record) []byte {
	buf := make([]byte, len(records)*RecordSize)
	for i := range records {
		encodeRecord(buf[i*RecordSize:(i+1)*RecordSize], records[i])
	}
	return buf
}

// Unpack decodes a buffer produced by Pack or read back from a device.
func Unpack(buf []byte) ([]Record, error) {
	if len(buf)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrBufferSize, len(buf), RecordSize)
	}
	records := make([]Record, len(buf)/RecordSize)
	for i := range records {
		records[i] = decodeRecord(buf[i*RecordSize : (i+1)*RecordSize])
	}
	return records, nil
}

func encodeRecord(dst []byte, r Record) {
	clear(dst[:RecordSize])
	putVec3(dst[offPosition:], r.Position)
	putVec3(dst[offVelocity:], r.Velocity)
	putVec3(dst[offAcceleration:], r.Acceleration)
	putVec3(dst[offSize:], r.Size)
	w := FlagWords(r.Flags)
	binary.LittleEndian.PutUint32(dst[offFlags:], uint32(w[0]))
	binary.LittleEndian.PutUint32(dst[offFlags+4:], uint32(w[1]))
}

// recordStatic reads only the flag word of an encoded record.
func recordStatic(src []byte) bool {
	return int32(binary.LittleEndian.Uint32(src[offFlags:]))&flagStatic != 0
}

func decodeRecord(src []byte) Record {
	w := [2]int32{
		int32(binary.LittleEndian.Uint32(src[offFlags:])),
		int32(binary.LittleEndian.Uint32(src[offFlags+4:])),
	}
	return Record{
		Position:     getVec3(src[offPosition:]),
		Velocity:     getVec3(src[offVelocity:]),
		Acceleration: getVec3(src[offAcceleration:]),
		Size:         getVec3(src[offSize:]),
		Flags:        FlagsFromWords(w),
	}
}

func putVec3(dst []byte, v mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v[i]))
	}
}

func getVec3(src []byte) mgl32.Vec3 {
	var v mgl32.Vec3
	for i := 0; i < 3; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return v
}
