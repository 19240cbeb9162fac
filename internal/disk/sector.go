package disk

import "math/bits"

// Sum8 computes the FileCore boot block checksum: an 8 bit byte-wise sum
// with end-around carry.
func Sum8(data []byte) byte {
	sum := 0
	for _, b := range data {
		sum += int(b)
		if sum > 0xFF {
			sum -= 0xFF
		}
	}
	return byte(sum)
}

// DefectChecksum computes the checksum terminating a FileCore defect list.
func DefectChecksum(defects []uint32) byte {
	var sum uint32
	for _, d := range defects {
		sum = bits.RotateLeft32(sum, -13)
		sum ^= d
	}
	sum ^= sum >> 16
	sum ^= sum >> 8
	return byte(sum)
}

// AlignUp rounds n up to the next multiple of unit.
func AlignUp(n, unit int64) int64 {
	if r := n % unit; r != 0 {
		return n + unit - r
	}
	return n
}

// AlignDown rounds n down to a multiple of unit.
func AlignDown(n, unit int64) int64 {
	return n - n%unit
}
