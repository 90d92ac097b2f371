package core

type Input struct {
	keys           map[Key]bool
	pressed        map[Key]bool
	mouseX, mouseY float64
	scroll         float64
}

func NewInput() *Input { return &Input{keys: map[Key]bool{}, pressed: map[Key]bool{}} }

func (in *Input) Handle(ev Event) {
	switch e := ev.(type) {
	case EventKey:
		if e.Down && !in.keys[e.Key] {
			in.pressed[e.Key] = true
		}
		in.keys[e.Key] = e.Down
	case EventMouseMove:
		in.mouseX, in.mouseY = e.X, e.Y
	case EventScroll:
		in.scroll += e.Yoff
	}
}

func (in *Input) IsKeyDown(k Key) bool      { return in.keys[k] }
func (in *Input) Mouse() (float64, float64) { return in.mouseX, in.mouseY }
func (in *Input) Scroll() float64           { return in.scroll }

// WasPressed reports whether k went down since the last EndFrame.
func (in *Input) WasPressed(k Key) bool { return in.pressed[k] }

// EndFrame clears per-frame state.
func (in *Input) EndFrame() {
	clear(in.pressed)
	in.scroll = 0
}
