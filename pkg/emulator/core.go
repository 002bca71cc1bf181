package emulator

// Core is a native emulation core the actor drives.
// All its methods are called from the actor goroutine only.
type Core interface {
	// LoadGame loads the game image at path.
	LoadGame(path string) error
	UnloadGame()
	// LoadSave loads battery memory from the file at path.
	LoadSave(path string) error
	// SaveTo writes battery memory into the file at path.
	SaveTo(path string) error
	// Run advances the emulation by one frame.
	Run()
	// Evaluate runs a debugger expression, the result is false
	// when the core can't evaluate it.
	Evaluate(expr string) (string, bool)
	// RunStealth executes code from the jump address without
	// affecting the visible emulation state. Named variables are
	// passed in and read back after the call.
	RunStealth(jump uint32, vars map[string]uint32) (map[string]uint32, bool)
	// FrameRate is the nominal refresh rate of the core in Hz.
	FrameRate() float64
	Deinit()
}

// ScreenSource gives the last frame produced by the core.
type ScreenSource interface {
	Screen() (ScreenData, bool)
}
