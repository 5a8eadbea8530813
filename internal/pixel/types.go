package pixel

// RGB is a red, green, blue pixel.
type RGB[T any] [3]T

// RGBA is an RGB pixel with an alpha channel.
type RGBA[T any] [4]T

// Vector is a fixed-length displacement or feature vector. Its length is set
// by the traits that describe it, see VectorOf.
type Vector[T any] []T

// Len returns the number of components.
func (v Vector[T]) Len() int { return len(v) }

// CovariantVector is a gradient-like vector; it is stored like Vector.
type CovariantVector[T any] []T

// Len returns the number of components.
func (v CovariantVector[T]) Len() int { return len(v) }

// RGBOf returns the traits of RGB pixels with elem components.
func RGBOf[E any](elem Traits[E]) Traits[RGB[E]] {
	return composite[RGB[E], E]{
		name: "RGB",
		n:    3,
		elem: elem,
		make: func() RGB[E] { return RGB[E]{} },
		get:  func(p RGB[E], i int) E { return p[i] },
		set:  func(p *RGB[E], i int, e E) { p[i] = e },
	}
}

// RGBAOf returns the traits of RGBA pixels with elem components.
func RGBAOf[E any](elem Traits[E]) Traits[RGBA[E]] {
	return composite[RGBA[E], E]{
		name: "RGBA",
		n:    4,
		elem: elem,
		make: func() RGBA[E] { return RGBA[E]{} },
		get:  func(p RGBA[E], i int) E { return p[i] },
		set:  func(p *RGBA[E], i int, e E) { p[i] = e },
	}
}

// VectorOf returns the traits of n-component Vector pixels.
func VectorOf[E any](n int, elem Traits[E]) Traits[Vector[E]] {
	mustPositive(n)
	return composite[Vector[E], E]{
		name:  "Vector",
		n:     n,
		sized: true,
		elem:  elem,
		make:  func() Vector[E] { return make(Vector[E], n) },
		get:   func(p Vector[E], i int) E { return p[i] },
		set:   func(p *Vector[E], i int, e E) { (*p)[i] = e },
	}
}

// CovariantVectorOf returns the traits of n-component CovariantVector pixels.
func CovariantVectorOf[E any](n int, elem Traits[E]) Traits[CovariantVector[E]] {
	mustPositive(n)
	return composite[CovariantVector[E], E]{
		name:  "CovariantVector",
		n:     n,
		sized: true,
		elem:  elem,
		make:  func() CovariantVector[E] { return make(CovariantVector[E], n) },
		get:   func(p CovariantVector[E], i int) E { return p[i] },
		set:   func(p *CovariantVector[E], i int, e E) { (*p)[i] = e },
	}
}

func mustPositive(n int) {
	if n <= 0 {
		panic("pixel: vector length must be positive")
	}
}
