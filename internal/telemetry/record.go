package telemetry

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// RecordFieldCount is the number of comma-separated fields in a wire record.
const RecordFieldCount = 11

// ErrMalformedRecord reports a wire record that does not parse as eleven
// well-formed fields.
var ErrMalformedRecord = errors.New("MALFORMED_RECORD")

// AppendRecord serializes s in wire order and appends it to dst, returning
// the extended slice. The record is newline terminated. Precision is fixed
// per field so identical samples always render identical bytes.
func AppendRecord(dst []byte, s MotorSample) []byte {
	dst = strconv.AppendInt(dst, int64(s.MotorIndex), 10)
	dst = append(dst, ',')
	if s.Updated {
		dst = append(dst, '1')
	} else {
		dst = append(dst, '0')
	}
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, s.ArmTimeMs, 'f', 0, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, s.ThrottleIn, 'f', 2, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, s.ThrottleOut, 'f', 2, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, s.RPM, 'f', 2, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, s.BusVoltage, 'f', 2, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, s.BusCurrent, 'f', 3, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, s.PhaseCurrent, 'f', 3, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, s.MosfetTemp, 'f', 2, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, s.CapTemp, 'f', 2, 64)
	dst = append(dst, '\n')
	return dst
}

// ParseRecord parses one wire record. The line may carry a trailing CR/LF.
// Any structural violation returns an error wrapping ErrMalformedRecord;
// callers drop the record and keep their state untouched.
func ParseRecord(line []byte) (MotorSample, error) {
	var s MotorSample

	line = bytes.TrimRight(line, "\r\n ")
	if len(line) == 0 {
		return s, fmt.Errorf("%w: empty line", ErrMalformedRecord)
	}

	fields := bytes.Split(line, []byte{','})
	if len(fields) != RecordFieldCount {
		return s, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedRecord, len(fields), RecordFieldCount)
	}

	idx, err := strconv.Atoi(string(fields[0]))
	if err != nil {
		return s, fmt.Errorf("%w: motor index %q", ErrMalformedRecord, fields[0])
	}
	if idx < 0 {
		return s, fmt.Errorf("%w: negative motor index %d", ErrMalformedRecord, idx)
	}
	s.MotorIndex = idx

	switch string(fields[1]) {
	case "0":
		s.Updated = false
	case "1":
		s.Updated = true
	default:
		return s, fmt.Errorf("%w: updated flag %q", ErrMalformedRecord, fields[1])
	}

	values := [...]*float64{
		&s.ArmTimeMs, &s.ThrottleIn, &s.ThrottleOut, &s.RPM,
		&s.BusVoltage, &s.BusCurrent, &s.PhaseCurrent, &s.MosfetTemp, &s.CapTemp,
	}
	names := [...]string{
		"armTimeMs", "throttleIn", "throttleOut", "rpm",
		"busVoltage", "busCurrent", "phaseCurrent", "mosfetTemp", "capTemp",
	}
	for i, dst := range values {
		v, err := strconv.ParseFloat(string(fields[i+2]), 64)
		if err != nil {
			return s, fmt.Errorf("%w: %s %q", ErrMalformedRecord, names[i], fields[i+2])
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return s, fmt.Errorf("%w: %s is not finite", ErrMalformedRecord, names[i])
		}
		*dst = v
	}

	return s, nil
}
