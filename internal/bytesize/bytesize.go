package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes that unmarshals from human-readable strings
// like "1Gi", "500Mi", "100MB" or plain numbers.
//
// Accepted forms:
//   - plain numbers: 1024, 1073741824
//   - IEC units (×1024): Ki/KiB, Mi/MiB, Gi/GiB, Ti/TiB
//   - SI units (×1000): K/KB, M/MB, G/GB, T/TB
//   - bytes: B
//
// Suffixes are case-insensitive and may be separated from the number by
// whitespace.
type ByteSize uint64

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB
	TB ByteSize = 1000 * GB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

// unitMultipliers accepts SI and IEC suffixes, with and without the
// trailing B, lowercased.
var unitMultipliers = map[string]ByteSize{
	"": B, "b": B,
	"k": KB, "kb": KB, "ki": KiB, "kib": KiB,
	"m": MB, "mb": MB, "mi": MiB, "mib": MiB,
	"g": GB, "gb": GB, "gi": GiB, "gib": GiB,
	"t": TB, "tb": TB, "ti": TiB, "tib": TiB,
}

// splitSize separates the numeric prefix from the unit suffix. The number
// may carry one decimal point; the unit must be purely alphabetic.
func splitSize(s string) (num, unit string, ok bool) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	num, unit = s[:i], strings.TrimSpace(s[i:])

	if num == "" || strings.Count(num, ".") > 1 ||
		strings.HasPrefix(num, ".") || strings.HasSuffix(num, ".") {
		return "", "", false
	}
	for _, r := range unit {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return "", "", false
		}
	}
	return num, unit, true
}

// ParseByteSize parses a human-readable byte size like "1Gi", "100MB" or
// "1024" into a ByteSize.
func ParseByteSize(s string) (ByteSize, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	num, unit, ok := splitSize(s)
	if !ok {
		return 0, fmt.Errorf("invalid byte size format: %q", s)
	}

	multiplier, ok := unitMultipliers[strings.ToLower(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}

	if strings.Contains(num, ".") {
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in byte size: %q", num)
		}
		return ByteSize(f * float64(multiplier)), nil
	}

	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte size: %q", num)
	}
	return ByteSize(n) * multiplier, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so ByteSize works in
// mapstructure-decoded config structs.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// String renders the size with the largest binary unit that fits.
func (b ByteSize) String() string {
	units := []struct {
		div  ByteSize
		name string
	}{
		{TiB, "TiB"},
		{GiB, "GiB"},
		{MiB, "MiB"},
		{KiB, "KiB"},
	}
	for _, u := range units {
		if b >= u.div {
			return fmt.Sprintf("%.2f%s", float64(b)/float64(u.div), u.name)
		}
	}
	return fmt.Sprintf("%dB", b)
}

// Uint64 returns the size as a uint64.
func (b ByteSize) Uint64() uint64 {
	return uint64(b)
}

// Int64 returns the size as an int64. Sizes over 8EiB overflow.
func (b ByteSize) Int64() int64 {
	return int64(b)
}
