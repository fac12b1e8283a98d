package occlusion

// fillEnclosedRegions finds zero-valued regions that cannot be reached from
// the image border. Input is a binary mask where 255 marks edge/sealed
// pixels and 0 marks open or possibly-interior pixels. A breadth-first flood
// seeded from every zero border pixel walks 4-connected zero neighbors; the
// output is 255 exactly at zero pixels the flood never reached (enclosed
// object interiors) and 0 everywhere else.
//
// The traversal uses an explicit worklist, never recursion, and visits each
// pixel at most once, so a full invocation is O(w*h) regardless of region
// shape.
func fillEnclosedRegions(mask []uint8, w, h int) []uint8 {
	out := make([]uint8, len(mask))
	if w < 1 || h < 1 {
		return out
	}

	visited := make([]bool, len(mask))
	queue := make([]int, 0, 2*(w+h))

	seed := func(i int) {
		if mask[i] == 0 && !visited[i] {
			visited[i] = true
			queue = append(queue, i)
		}
	}

	for x := 0; x < w; x++ {
		seed(x)           // top row
		seed((h-1)*w + x) // bottom row
	}
	for y := 0; y < h; y++ {
		seed(y * w)         // left column
		seed(y*w + (w - 1)) // right column
	}

	for head := 0; head < len(queue); head++ {
		i := queue[head]
		x := i % w
		y := i / w

		if x > 0 {
			seed(i - 1)
		}
		if x < w-1 {
			seed(i + 1)
		}
		if y > 0 {
			seed(i - w)
		}
		if y < h-1 {
			seed(i + w)
		}
	}

	for i := range mask {
		if mask[i] == 0 && !visited[i] {
			out[i] = 255
		}
	}
	return out
}
