package gid

import "fmt"

// recordedPixel is one SetXY/PutPixel observation captured by recSink,
// used across every format's table-driven tests to assert against
// spec.md section 8's literal expected-output fixtures.
type recordedPixel struct {
	x, y          int
	r, g, b, a    uint32
}

// recSink is a minimal Sink for tests: it tracks the current (x, y)
// cursor per the PutPixel-without-SetXY auto-advance rule, and records
// every emitted pixel plus the feedback sequence for monotonicity checks.
type recSink struct {
	width int
	x, y  int
	pixels []recordedPixel
	feedback []int
	primaryWidth int
}

func newRecSink() *recSink {
	return &recSink{primaryWidth: 8}
}

func (s *recSink) SetXY(x, y int) {
	s.x, s.y = x, y
}

func (s *recSink) PutPixel(r, g, b, a uint32) {
	s.pixels = append(s.pixels, recordedPixel{x: s.x, y: s.y, r: r, g: g, b: b, a: a})
	s.x++
}

func (s *recSink) Feedback(percent int) {
	s.feedback = append(s.feedback, percent)
}

func (s *recSink) PrimaryWidth() int {
	if s.primaryWidth == 0 {
		return 8
	}
	return s.primaryWidth
}

// at returns the recorded pixel at logical position (x, y), panicking
// with a descriptive message if none was emitted there — tests want a
// clear failure, not a zero-value false positive.
func (s *recSink) at(x, y int) recordedPixel {
	for _, p := range s.pixels {
		if p.x == x && p.y == y {
			return p
		}
	}
	panic(fmt.Sprintf("no pixel recorded at (%d,%d)", x, y))
}
