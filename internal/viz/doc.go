// Package viz provides the terminal views of a running world.
//
// [Model] renders the scene as a Braille wireframe seen through the world's
// camera, next to a stats panel with a height graph of the first dynamic
// body. [Picker] lists scenes and starts a live view of the chosen one.
// [PlotTrack] charts a recorded body track for the plot command.
//
// # Key Bindings
//
//	w/s a/d - move and strafe
//	Space   - jump
//	hjkl    - look (arrows and mouse also work)
//	f       - toggle free-fly
//	p       - pause/resume
//	t       - cycle color themes
//	q       - quit
package viz
