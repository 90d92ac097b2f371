package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLerp(t *testing.T) {
	assert.Equal(t, Black, Black.Lerp(White, -1))
	assert.Equal(t, White, Black.Lerp(White, 2))
	assert.Equal(t, Color{0.5, 0.5, 0.5, 1}, Black.Lerp(White, 0.5))
}

func TestWithAlpha(t *testing.T) {
	r, g, b, a := Red.WithAlpha(0.25).RGBA()
	assert.Equal(t, [4]float32{1, 0, 0, 0.25}, [4]float32{r, g, b, a})
	assert.Equal(t, float32(1), Red[3], "receiver unchanged")
}
