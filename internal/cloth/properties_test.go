package cloth_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/compute"
)

var _ = Describe("Clothe", func() {
	far := cloth.Sphere{Center: mgl32.Vec3{0, -100, 0}, Radius: 1}

	Describe("construction", func() {
		DescribeTable("vertex and index counts",
			func(length float32, n uint32) {
				c, err := cloth.New(length, n, mgl32.Vec3{1, -2, 3})
				Expect(err).NotTo(HaveOccurred())
				Expect(c.VertexCount()).To(Equal(int((n + 1) * (n + 1))))
				Expect(c.IndexCount()).To(Equal(int(n * n * 6)))
				Expect(c.Springs()).To(HaveLen(c.VertexCount()))
			},
			Entry("single cell", float32(1), uint32(1)),
			Entry("small", float32(0.5), uint32(3)),
			Entry("medium", float32(10), uint32(24)),
		)

		It("builds the single-cell scenario", func() {
			c, err := cloth.New(1, 1, mgl32.Vec3{})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.VertexCount()).To(Equal(4))
			Expect(c.Indices()).To(HaveLen(6))

			for i, s := range c.Springs() {
				id := uint32(i)
				Expect(s.Count(id, cloth.Structural)).To(Equal(2))
				Expect(s.Count(id, cloth.Shear)).To(BeNumerically("<=", 1))
				Expect(s.Count(id, cloth.Bend)).To(BeZero())
			}
		})

		It("rejects zero subdivisions", func() {
			_, err := cloth.New(1, 0, mgl32.Vec3{})
			Expect(err).To(MatchError(cloth.ErrInvalidTopology))
		})

		It("rejects a non-positive length", func() {
			_, err := cloth.New(-2, 4, mgl32.Vec3{})
			Expect(err).To(MatchError(cloth.ErrInvalidTopology))
		})
	})

	Describe("stepping", func() {
		It("leaves a relaxed grid in place without gravity", func() {
			c, err := cloth.New(2, 6, mgl32.Vec3{0, 3, 0})
			Expect(err).NotTo(HaveOccurred())
			before := c.Snapshot()

			params := cloth.ComputeParams{SpringConstant: 1000}
			Expect(c.Step(0.01, far, params)).To(Succeed())

			for i, v := range c.Vertices() {
				Expect(v.Position.Sub(before[i].Position).Len()).To(BeNumerically("<", 1e-6), "vertex %d", i)
				Expect(v.Velocity.Len()).To(BeNumerically("<", 1e-6), "vertex %d", i)
			}
		})

		It("rejects a negative delta time without touching state", func() {
			c, err := cloth.New(1, 4, mgl32.Vec3{})
			Expect(err).NotTo(HaveOccurred())
			params := cloth.DefaultParams()
			Expect(c.Step(params.DeltaTime, far, params)).To(Succeed())
			before := c.Snapshot()

			Expect(c.Step(-1, far, params)).To(MatchError(cloth.ErrInvalidTick))
			Expect(c.Vertices()).To(Equal(before))
		})

		It("never lets a vertex end a tick inside the sphere", func() {
			sphere := cloth.Sphere{Center: mgl32.Vec3{0.1, 0, -0.05}, Radius: 0.5, FrictionFactor: 0.3}
			c, err := cloth.New(1.5, 12, mgl32.Vec3{0, 0.6, 0})
			Expect(err).NotTo(HaveOccurred())

			params := cloth.ComputeParams{SpringConstant: 800, DampingFactor: 0.2, Gravity: 9.81}
			touched := false
			for tick := 0; tick < 300; tick++ {
				Expect(c.Step(0.01, sphere, params)).To(Succeed())
				for _, v := range c.Vertices() {
					d := v.Position.Sub(sphere.Center).Len()
					Expect(d).To(BeNumerically(">=", sphere.Radius-1e-4))
					if d < sphere.Radius+1e-3 {
						touched = true
					}
				}
			}
			Expect(touched).To(BeTrue(), "cloth never reached the sphere")
		})

		It("produces identical results for any worker count", func() {
			run := func(d cloth.Dispatcher) []cloth.Vertex {
				c, err := cloth.New(2, 20, mgl32.Vec3{0, 0.8, 0}, cloth.WithDispatcher(d), cloth.WithPinned(0, 20))
				Expect(err).NotTo(HaveOccurred())
				sphere := cloth.Sphere{Radius: 0.6, FrictionFactor: 0.2}
				params := cloth.DefaultParams()
				for i := 0; i < 80; i++ {
					Expect(c.Step(params.DeltaTime, sphere, params)).To(Succeed())
				}
				return c.Snapshot()
			}

			reference := run(compute.NewSerialBackend())
			Expect(run(compute.NewSerialBackend())).To(Equal(reference))
			for _, workers := range []int{2, 3, 8} {
				Expect(run(compute.NewCPUBackend(workers).WithMinChunk(1))).To(Equal(reference), "workers=%d", workers)
			}
		})
	})

	Describe("single cell hanging from one corner", func() {
		const ticks = 1000

		var (
			c       *cloth.Clothe
			params  cloth.ComputeParams
			heights []float64
			stretch float32
		)

		BeforeEach(func() {
			var err error
			c, err = cloth.New(1, 1, mgl32.Vec3{}, cloth.WithPinned(0))
			Expect(err).NotTo(HaveOccurred())
			params = cloth.ComputeParams{SpringConstant: 1000, DampingFactor: 0.1, Gravity: 9.81, DeltaTime: 0.01}

			heights = heights[:0]
			stretch = 0
			for i := 0; i < ticks; i++ {
				Expect(c.Step(params.DeltaTime, far, params)).To(Succeed())

				var sum float64
				for id := uint32(1); id < 4; id++ {
					sum += float64(c.Height(id))
				}
				heights = append(heights, sum/3)

				springs := c.Springs()
				if r := springs[0].Stretch(0); r > stretch {
					stretch = r
				}
				for id := uint32(1); id < 4; id++ {
					s := springs[id]
					for k := 0; k < cloth.SpringSlots; k++ {
						if s.Links[k] == 0 && s.RestDistance[k] > 0 {
							if r := s.CurrentDistance[k] / s.RestDistance[k]; r > stretch {
								stretch = r
							}
						}
					}
				}
			}
		})

		It("sinks on average", func() {
			window := func(from int) float64 {
				var sum float64
				for _, h := range heights[from : from+100] {
					sum += h
				}
				return sum / 100
			}
			Expect(window(0)).To(BeNumerically("<", 0))
			Expect(window(ticks - 100)).To(BeNumerically("<", window(0)))
		})

		It("keeps the springs at the fixed corner bounded", func() {
			Expect(stretch).To(BeNumerically("<", 1.5))
			for _, v := range c.Vertices() {
				Expect(math.IsNaN(float64(v.Position.Len()))).To(BeFalse())
			}
			Expect(c.Vertices()[0].Position).To(Equal(mgl32.Vec3{-0.5, 0, -0.5}))
		})
	})
})
