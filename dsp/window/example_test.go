package window_test

import (
	"fmt"

	"github.com/cwbudde/algo-pitch/dsp/window"
)

func ExampleGenerate() {
	w := window.Generate(window.TypeBlackman, 4, window.WithPeriodic())
	fmt.Printf("%.2f %.2f %.2f\n", w[1], w[2], w[3])

	// Output:
	// 0.34 1.00 0.34
}

func ExampleApplyCoefficientsInPlace() {
	buf := []float64{1, 1, 1}
	if err := window.ApplyCoefficientsInPlace(buf, window.Generate(window.TypeHann, 3)); err != nil {
		panic(err)
	}
	fmt.Printf("%.1f %.1f %.1f\n", buf[0], buf[1], buf[2])

	// Output:
	// 0.0 1.0 0.0
}
