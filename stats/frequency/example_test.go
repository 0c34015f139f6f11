package frequency_test

import (
	"fmt"

	frequencystats "github.com/cwbudde/algo-pitch/stats/frequency"
)

func ExamplePeak() {
	mag := []float64{0, 3, 9, 4, 1}
	bin, val := frequencystats.Peak(mag)
	hz := frequencystats.BinFrequency(bin, 8000, 8)
	fmt.Printf("bin=%d value=%.0f hz=%.0f\n", bin, val, hz)

	// Output:
	// bin=2 value=9 hz=2000
}
