package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/san-kum/clothsim/internal/cloth"
)

// WriteOBJ writes the mesh as Wavefront OBJ with positions, texture
// coordinates and normals. Face indices are 1-based and share one index for
// all three attributes.
func WriteOBJ(w io.Writer, vertices []cloth.Vertex, indices []uint32) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("export: index count %d is not a multiple of 3", len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("export: index %d out of range [0, %d)", idx, len(vertices))
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# clothsim mesh: %d vertices, %d triangles\n", len(vertices), len(indices)/3)

	for _, v := range vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.Position[0], v.Position[1], v.Position[2])
	}
	for _, v := range vertices {
		fmt.Fprintf(bw, "vt %g %g\n", v.TexCoord[0], v.TexCoord[1])
	}
	for _, v := range vertices {
		fmt.Fprintf(bw, "vn %g %g %g\n", v.Normal[0], v.Normal[1], v.Normal[2])
	}
	for i := 0; i < len(indices); i += 3 {
		a, b, c := indices[i]+1, indices[i+1]+1, indices[i+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	return bw.Flush()
}
