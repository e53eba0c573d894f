// Package export writes cloth meshes and run summaries in interchange
// formats: Wavefront OBJ for meshes and JSON for frames and run data.
package export
