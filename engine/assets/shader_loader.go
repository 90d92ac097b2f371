package assets

import (
	"os"

	"github.com/pkg/errors"
)

// LoadShader reads a GLSL file into a null-terminated string for OpenGL.
func LoadShader(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "load shader '%s'", path)
	}
	// Ensure null termination for gl.Str
	if len(b) == 0 || b[len(b)-1] != 0 {
		b = append(b, 0)
	}
	return string(b), nil
}
