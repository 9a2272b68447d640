package profile_test

import (
	"fmt"

	"github.com/cwbudde/algo-linefit/profile"
)

func ExampleVoigt() {
	fmt.Printf("lorentz=%.6f gauss=%.6f\n", profile.Voigt(0, 0, 1), profile.Voigt(0, 1, 0))

	// Output:
	// lorentz=0.318310 gauss=0.398942
}

func ExampleLookup() {
	m, _ := profile.Lookup("voigt2")
	fmt.Println(m.NumParams(), m.ParamNames()[0])

	// Output:
	// 7 center
}
