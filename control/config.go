// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Configuration file loading. The format follows the file extension:
// .toml via BurntSushi/toml, .yaml/.yml via yaml.v3. Durations are written
// as strings ("250ms", "5s") in both.

package control

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/momentics/xsocket/api"
)

// LoadFile decodes the file at path into v, leaving fields absent from the
// file untouched so callers can pre-fill defaults.
func LoadFile(path string, v any) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, v)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("decode %s: unknown keys %v", path, undecoded)
		}
		return nil
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported config format %q", api.ErrInvalidParameter, ext)
	}
}
