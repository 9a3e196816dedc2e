package tensor

import (
	"encoding/binary"
	"math"
)

func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func getU32(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }
func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func getU16(b []byte) uint16    { return binary.LittleEndian.Uint16(b) }

func float32bits(v float32) uint32    { return math.Float32bits(v) }
func float32frombits(v uint32) float32 { return math.Float32frombits(v) }
