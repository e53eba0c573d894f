// Package stream serves a running cloth to browser renderers over
// websockets.
//
// A [Hub] is a sim.Observer: attach it to a simulator and every n-th tick is
// pushed to all connected clients. Clients connect to /ws, receive the latest
// frame with the index buffer, then one frame per broadcast tick. They may
// send {"paused": true} or {"reset": true} to steer the run.
package stream
