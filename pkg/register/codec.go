/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package register

import (
	"math"
	"strconv"
)

// field extracts the bits of the register from a raw word
func (d *Definition) field(raw uint32) uint64 {
	return (uint64(raw) >> d.Offset) & d.fieldMask()
}

// place puts field bits at their position in the word
func (d *Definition) place(bits uint64) uint32 {
	return uint32((bits & d.fieldMask()) << d.Offset)
}

// signExtend interprets the field bits as a two's complement number
func (d *Definition) signExtend(bits uint64) int64 {
	shift := 64 - d.Width
	return int64(bits<<shift) >> shift
}

func (d *Definition) invalid(v interface{}, reason string) error {
	return ErrInvalidValue{Register: d.Name, Value: v, Reason: reason}
}

// Decode converts a raw word into the host value of the register.
// unsigned and raw give uint64, signed gives int64, fixed and phase give float64,
// bool gives bool and enum gives the option label.
func (d *Definition) Decode(raw uint32) (interface{}, error) {
	bits := d.field(raw)
	switch d.Encoding {
	case EncodingUnsigned, EncodingRaw:
		return bits, nil
	case EncodingSigned:
		return d.signExtend(bits), nil
	case EncodingFixed:
		if d.Signed {
			return float64(d.signExtend(bits)) * d.Scale, nil
		}
		return float64(bits) * d.Scale, nil
	case EncodingBool:
		return (bits != 0) != d.Invert, nil
	case EncodingEnum:
		for _, o := range d.Options {
			if uint64(o.Code) == bits {
				return o.Label, nil
			}
		}
		return nil, ErrUnknownEncoding{Register: d.Name, Code: bits}
	case EncodingPhase:
		return float64(bits) / math.Ldexp(1, int(d.Width)) * 360, nil
	}
	return nil, ErrUnknownEncoding{Register: d.Name, Code: bits}
}

// Encode converts a host value into the register bits, already shifted into
// their position inside the word. Bits outside Mask() are zero.
// Signed values out of range wrap around like the hardware truncates them.
func (d *Definition) Encode(v interface{}) (uint32, error) {
	switch d.Encoding {
	case EncodingUnsigned:
		n, ok := toUint64(v)
		if !ok {
			return 0, d.invalid(v, "expected a non-negative integer")
		}
		if n > d.fieldMask() {
			return 0, d.invalid(v, "does not fit into "+strconv.Itoa(int(d.Width))+" bits")
		}
		return d.place(n), nil
	case EncodingSigned:
		n, ok := toInt64(v)
		if !ok {
			return 0, d.invalid(v, "expected an integer")
		}
		return d.place(uint64(n)), nil
	case EncodingRaw:
		n, ok := toInt64(v)
		if !ok {
			u, ok := toUint64(v)
			if !ok {
				return 0, d.invalid(v, "expected an integer")
			}
			return d.place(u), nil
		}
		return d.place(uint64(n)), nil
	case EncodingFixed:
		f, ok := toFloat64(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, d.invalid(v, "expected a finite number")
		}
		steps := math.RoundToEven(f / d.Scale)
		if steps >= math.MaxInt64 || steps <= math.MinInt64 {
			return 0, d.invalid(v, "out of range")
		}
		if d.Signed {
			return d.place(uint64(int64(steps))), nil
		}
		if steps < 0 || uint64(steps) > d.fieldMask() {
			return 0, d.invalid(v, "out of range for an unsigned "+strconv.Itoa(int(d.Width))+" bit register")
		}
		return d.place(uint64(steps)), nil
	case EncodingBool:
		b, ok := toBool(v)
		if !ok {
			return 0, d.invalid(v, "expected a boolean")
		}
		if b != d.Invert {
			return d.place(1), nil
		}
		return 0, nil
	case EncodingEnum:
		label, ok := v.(string)
		if !ok {
			return 0, d.invalid(v, "expected an option label")
		}
		for _, o := range d.Options {
			if o.Label == label {
				return d.place(uint64(o.Code)), nil
			}
		}
		return 0, d.invalid(v, "unknown option label")
	case EncodingPhase:
		f, ok := toFloat64(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, d.invalid(v, "expected a finite number")
		}
		full := math.Ldexp(1, int(d.Width))
		steps := math.Mod(math.RoundToEven(f/360*full), full)
		if steps < 0 {
			steps += full
		}
		return d.place(uint64(steps)), nil
	}
	return 0, d.invalid(v, "unknown encoding "+string(d.Encoding))
}

// Parse converts the text form of a value, e.g. a command line argument,
// into a host value suitable for Encode.
func (d *Definition) Parse(s string) (interface{}, error) {
	switch d.Encoding {
	case EncodingUnsigned, EncodingRaw:
		n, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, d.invalid(s, err.Error())
		}
		return n, nil
	case EncodingSigned:
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, d.invalid(s, err.Error())
		}
		return n, nil
	case EncodingFixed, EncodingPhase:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, d.invalid(s, err.Error())
		}
		return f, nil
	case EncodingBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, d.invalid(s, err.Error())
		}
		return b, nil
	case EncodingEnum:
		return s, nil
	}
	return nil, d.invalid(s, "unknown encoding "+string(d.Encoding))
}

// Labels returns the option labels of an enum register in declaration order
func (d *Definition) Labels() []string {
	labels := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		labels = append(labels, o.Label)
	}
	return labels
}
