// Package options persists the tunable bundles a run is configured
// with — theory, electrons, real-time — as a directory of plain-text
// files, one file per value, in the source's own on-disk format:
// enumerations written as lowercase keywords, numerics in scientific
// notation carrying at least sixteen significant digits, a missing
// file meaning "use the default", and an unrecognized file in the
// directory simply ignored.
package options

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/qsim/rtdft/errs"
)

const floatFormat = "%.17e"

func writeFile(dir, name, content string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.IOFailuref("options: cannot create directory %q: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
		return errs.IOFailuref("options: cannot write %q: %v", path, err)
	}
	return nil
}

func writeFloat(dir, name string, value *float64) error {
	if value == nil {
		return nil
	}
	return writeFile(dir, name, fmt.Sprintf(floatFormat, *value))
}

func writeInt(dir, name string, value *int) error {
	if value == nil {
		return nil
	}
	return writeFile(dir, name, strconv.Itoa(*value))
}

func writeBool(dir, name string, value *bool) error {
	if value == nil {
		return nil
	}
	b := "false"
	if *value {
		b = "true"
	}
	return writeFile(dir, name, b)
}

func writeKeyword(dir, name string, value string, present bool) error {
	if !present {
		return nil
	}
	return writeFile(dir, name, strings.ToLower(value))
}

func readFile(dir, name string) (string, bool, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errs.IOFailuref("options: cannot read %q: %v", path, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

func readFloat(dir, name string) (*float64, error) {
	s, ok, err := readFile(dir, name)
	if err != nil || !ok {
		return nil, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errs.IOFailuref("options: %s/%s does not hold a number: %v", dir, name, err)
	}
	return &v, nil
}

func readInt(dir, name string) (*int, error) {
	s, ok, err := readFile(dir, name)
	if err != nil || !ok {
		return nil, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, errs.IOFailuref("options: %s/%s does not hold an integer: %v", dir, name, err)
	}
	return &v, nil
}

func readBool(dir, name string) (*bool, error) {
	s, ok, err := readFile(dir, name)
	if err != nil || !ok {
		return nil, err
	}
	v := s == "true"
	return &v, nil
}

func readKeyword(dir, name string) (string, bool, error) {
	return readFile(dir, name)
}
