// Package viz renders a running cloth in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: steps a cloth in real time with a height map or wireframe view
//   - [NewMenu]: preset picker that starts a Model
//   - [Canvas]: braille dot canvas used by the wireframe view
//   - [PlotSeries]: line graphs of sampled runs
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Rebuild the cloth
//	V     - Toggle height map / wireframe
//	T     - Cycle color themes
//	Tab   - Select a parameter, Up/Down to tune it
//	?     - Show help overlay
package viz
