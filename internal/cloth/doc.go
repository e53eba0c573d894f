// Package cloth implements a mass-spring cloth that is stepped at a fixed
// timestep against a static sphere.
//
// A [Clothe] is built from a side length, a subdivision count and a center
// point. Construction lays out an (N+1)×(N+1) grid of [Vertex] values, a
// triangle index buffer, and one [Spring] record per vertex holding up to 12
// links:
//
//   - structural: top, bottom, left, right
//   - shear: the four diagonals
//   - bend: two cells away along each grid axis
//
// Each call to [Clothe.Step] runs three phases over every vertex, with a
// barrier between them:
//
//  1. spring lengths are measured from the positions left by the last tick
//  2. spring and gravity forces are integrated (semi-implicit Euler with
//     linear damping) and the result is resolved against the [Sphere]
//  3. shading normals are recomputed from the new positions
//
// # Example
//
//	c, err := cloth.New(2, 32, mgl32.Vec3{0, 1, 0}, cloth.WithUpAxis(cloth.AxisY))
//	if err != nil {
//	    return err
//	}
//	sphere := cloth.Sphere{Radius: 0.5, FrictionFactor: 0.2}
//	params := cloth.DefaultParams()
//	for i := 0; i < 600; i++ {
//	    if err := c.Step(params.DeltaTime, sphere, params); err != nil {
//	        return err
//	    }
//	}
//	buf := c.VertexBuffer()
//
// # Thread Safety
//
// A Clothe is NOT safe for concurrent use. Step may fan each phase out over
// a [Dispatcher]; every phase reads only the previous phase's output, so the
// computed values do not depend on the number of workers.
package cloth
